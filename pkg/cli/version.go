package cli

// Version is reported by --version. Overridden during build with ldflags:
//
//	go build -ldflags "-X github.com/bcomnes/releasekit/pkg/cli.Version=1.0.0"
var Version = "dev"
