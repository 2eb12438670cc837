package types

// Version is set during build via -ldflags "-X github.com/m-mizutani/icloudpull/pkg/domain/types.Version=X.Y.Z"
var Version = "dev"

// AppName is used in user agents, log lines and notifications
const AppName = "icloudpull"
