package config

// Path is the config file path, supplied by cmd/glidebill from argv.
//
// cmd/glidebill provides RunConfig directly with its own fx.Provide,
// rather than through a Module here, so that a Load failure can be
// wrapped in the caller's ConfigError sentinel before it reaches fx.
type Path string
