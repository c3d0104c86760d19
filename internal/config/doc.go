// Package config loads the local run settings and resolves each study's
// remote rule document into compiled TransformationConfigs.
//
// Local settings come from a dotenv (or YAML/JSON) file read with viper;
// environment variables override file values. The remote rule document is
// fetched from a path, a file:// URL or an http(s):// URL.
package config
