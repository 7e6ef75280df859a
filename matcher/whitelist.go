package matcher

// Whitelist is the default list of IP addresses that should never be blocked.
// It is empty: every address reaching the threshold is blocked unless the
// operator whitelists it.
var Whitelist = []string{}
