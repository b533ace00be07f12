package version

// Version is overridden at build time with -ldflags "-X pyward/internal/shared/version.Version=...".
var Version = "dev"
