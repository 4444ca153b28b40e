// Package config loads the pipeline configuration.
//
// # Configuration Sources
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. config.yaml (explicit path, else ./config.yaml or ./configs/config.yaml)
//  3. PROXY_* environment variables
//
// The result is validated with struct tags and returned by value; stages
// receive it as an immutable argument and never read the environment.
//
// # Environment Variables
//
//	PROXY_PATHS_BASE_DIR=/srv/proxies
//	PROXY_SEASONS_FIRST=2019
//	PROXY_PIPELINE_MIN_OPPONENT_CLUSTERS=10
//	PROXY_PIPELINE_ODDS_PREFIXES=B365,PS
//	PROXY_LOGGING_LEVEL=debug
//
// # Path Management
//
// PathsConfig.Resolve turns relative locations into absolute Paths rooted at
// BaseDir; input globs are rooted at RawDir.
package config
