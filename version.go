package monolith

// Version is the current Monolith release.
const Version = "0.4.0"
