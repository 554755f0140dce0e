// Package config reads the project file (.ababilrc.json and friends) that
// sets the data directory, default environment and transport options.
// The file is found by walking up from the working directory; flags
// override what it sets.
package config
