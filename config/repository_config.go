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

package config

import "fmt"

// configuration for a single DataONE-compatible metadata repository
type repositoryConfig struct {
	// human-readable name of the repository
	Name string `yaml:"name" json:"name"`
	// name of the organization hosting the repository
	Organization string `yaml:"organization" json:"organization"`
	// base URL for the repository's search index (Solr query service)
	QueryURL string `yaml:"query_url" json:"query_url"`
	// base URL for system metadata fetches (GET <metadata_url><pid>)
	MetadataURL string `yaml:"metadata_url" json:"metadata_url"`
	// base URL for object fetches and saves (GET/PUT <object_url><pid>)
	ObjectURL string `yaml:"object_url" json:"object_url"`
	// base URL for package (BagIt) downloads
	PackageURL string `yaml:"package_url" json:"package_url"`
	// base URL of the coordinating node's resolve service, used to qualify
	// identifiers in resource map graphs
	ResolveURL string `yaml:"resolve_url" json:"resolve_url"`
}

// checks that the repository entry with the given YAML key is usable
func (repo repositoryConfig) validate(name string) error {
	if repo.QueryURL == "" {
		return fmt.Errorf("Repository '%s' has no query_url", name)
	}
	if repo.MetadataURL == "" {
		return fmt.Errorf("Repository '%s' has no metadata_url", name)
	}
	if repo.ObjectURL == "" {
		return fmt.Errorf("Repository '%s' has no object_url", name)
	}
	if repo.ResolveURL == "" {
		return fmt.Errorf("Repository '%s' has no resolve_url", name)
	}
	return nil
}
