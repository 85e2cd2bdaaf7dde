package version

// Version is overridden at build time via -ldflags "-X xai-chat/internal/version.Version=...".
var Version = "dev"
