// Package config loads typed configuration structs from environment
// variables, with optional .env bootstrap for local development. Every
// package in this module declares its own Config struct with `env` tags and
// a DefaultConfig constructor; the composition root decides whether values
// come from the environment or are set in code.
package config
