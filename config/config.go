// Copyright (c) 2024 The DataONE Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// The config package holds the configuration for the Data Package Service
// (DPS), read from a YAML file at startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// global config variables
var Service serviceConfig
var Repositories map[string]repositoryConfig

// This struct performs the unmarshalling from the YAML config file and then
// copies its fields to the globals above.
type configFile struct {
	Service      serviceConfig               `yaml:"service"`
	Repositories map[string]repositoryConfig `yaml:"repositories"`
}

// This helper reads configuration data, returning an error indicating success
// or failure. All environment variables of the form ${ENV_VAR} are expanded.
func readConfig(bytes []byte) error {
	// expand any provided environment variables
	bytes = []byte(os.ExpandEnv(string(bytes)))

	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		return fmt.Errorf("Couldn't parse configuration data: %s", err.Error())
	}

	// copy the config data into place
	Service = conf.Service
	Repositories = conf.Repositories

	return nil
}

// This helper validates the given configuration, returning an error that
// indicates success or failure.
func validateConfig() error {
	if Service.Port < 0 || Service.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", Service.Port)
	}
	if Service.MaxConnections <= 0 {
		return fmt.Errorf("Invalid max_connections: %d (must be positive)",
			Service.MaxConnections)
	}

	// were we given any repositories?
	if len(Repositories) == 0 {
		return fmt.Errorf("No repositories were provided!")
	}
	for name, repo := range Repositories {
		if err := repo.validate(name); err != nil {
			return err
		}
	}
	return nil
}

// Initializes the DPS configuration using the given YAML byte data.
func Init(yamlData []byte) error {
	err := readConfig(yamlData)
	if err != nil {
		return err
	}
	return validateConfig()
}
