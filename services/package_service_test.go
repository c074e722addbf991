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

package services

// This file defines a unit test setup for the data package service. To
// simplify the testing protocol, we stand up a fake repository that answers
// index queries and serves a canned resource map.
import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dataone/dps/config"
	"github.com/dataone/dps/dpstest"
	"github.com/dataone/dps/journal"
)

// working directory from which the tests were invoked
var CWD string

// temporary testing directory
var TESTING_DIR string

// DPS URLs
var (
	baseUrl   = "http://localhost:8080/"
	apiPrefix = "api/v1/"
)

// fake repository server standing in for a DataONE member node
var fakeRepository *httptest.Server

// service instance
var service PackageService

// identifiers used by the fake repository
const (
	testMapId   = "resource_map_urn:uuid:100"
	testMetaId  = "urn:uuid:200"
	testDataId  = "urn:uuid:300"
	testNakedId = "urn:uuid:999"
)

const dpsConfig string = `
service:
  port: 8080
  max_connections: 100
  data_dir: TESTING_DIR/data
repositories:
  knb:
    name: KNB Data Repository
    organization: NCEAS
    query_url: SERVER_URL/query/solr/?
    metadata_url: SERVER_URL/meta/
    object_url: SERVER_URL/object/
    package_url: SERVER_URL/package/
    resolve_url: https://cn.dataone.org/cn/v2/resolve/
  arctic:
    name: Arctic Data Center
    organization: NCEAS
    query_url: SERVER_URL/query/solr/?
    metadata_url: SERVER_URL/meta/
    object_url: SERVER_URL/object/
    package_url: SERVER_URL/package/
    resolve_url: https://cn.dataone.org/cn/v2/resolve/
`

const testMapDocument = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF
    xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
    xmlns:ore="http://www.openarchives.org/ore/terms/"
    xmlns:dcterms="http://purl.org/dc/terms/">
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A100">
    <dcterms:identifier rdf:datatype="http://www.w3.org/2001/XMLSchema#string">resource_map_urn:uuid:100</dcterms:identifier>
    <ore:describes rdf:resource="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A100#aggregation"/>
  </rdf:Description>
  <rdf:Description rdf:about="https://cn.dataone.org/cn/v2/resolve/resource_map_urn%3Auuid%3A100#aggregation">
    <ore:aggregates rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A200"/>
    <ore:aggregates rdf:resource="https://cn.dataone.org/cn/v2/resolve/urn%3Auuid%3A300"/>
  </rdf:Description>
</rdf:RDF>`

// index records served by the fake repository's query endpoint
var (
	mapDoc = map[string]any{
		"id":         testMapId,
		"formatType": "RESOURCE",
		"formatId":   "http://www.openarchives.org/ore/terms",
		"size":       1537,
	}
	metaDoc = map[string]any{
		"id":          testMetaId,
		"formatType":  "METADATA",
		"formatId":    "https://eml.ecoinformatics.org/eml-2.2.0",
		"fileName":    "metadata.xml",
		"size":        4096,
		"checksum":    "11e93bb302e50d13798ae0a1bbeca2cf",
		"title":       "Soil moisture profiles",
		"origin":      []string{"J. Mertz"},
		"documents":   []string{testDataId},
		"resourceMap": []string{testMapId},
	}
	dataDoc = map[string]any{
		"id":                  testDataId,
		"formatType":          "DATA",
		"formatId":            "text/csv",
		"fileName":            "moisture.csv",
		"size":                2048,
		"checksum":            "0ac4b6ed2b5e85acab2f27b4c173e16f",
		"isDocumentedBy":      []string{testMetaId},
		"resourceMap":         []string{testMapId},
		"prov_wasDerivedFrom": []string{testNakedId},
	}
	nakedDoc = map[string]any{
		"id":         testNakedId,
		"formatType": "DATA",
		"fileName":   "raw.dat",
		"size":       77,
	}
)

// builds the handler for the fake repository: a Solr-ish query endpoint and
// an object endpoint serving the canned resource map
func fakeRepositoryHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /query/solr/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var docs []map[string]any
		switch {
		case strings.Contains(q, fmt.Sprintf("resourceMap:%q", testMapId)):
			docs = []map[string]any{mapDoc, metaDoc, dataDoc}
		case strings.Contains(q, "documents:"):
			docs = []map[string]any{nakedDoc}
		case strings.Contains(q, fmt.Sprintf("id:%q", testDataId)):
			docs = []map[string]any{dataDoc}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"numFound": len(docs),
				"docs":     docs,
			},
		})
	})
	mux.HandleFunc("GET /object/{pid}", func(w http.ResponseWriter, r *http.Request) {
		pid, _ := url.PathUnescape(r.PathValue("pid"))
		if pid != testMapId {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(testMapDocument))
	})
	return mux
}

// performs testing setup
func setup() {
	dpstest.EnableDebugLogging()

	// jot down our CWD, create a temporary directory, and change to it
	var err error
	CWD, err = os.Getwd()
	if err != nil {
		log.Panicf("Couldn't get current working directory: %s", err)
	}
	log.Print("Creating testing directory...\n")
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "data-package-service-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}
	os.Chdir(TESTING_DIR)

	// stand up the fake repository
	fakeRepository = httptest.NewServer(fakeRepositoryHandler())

	// read in the config file with SERVER_URL and TESTING_DIR replaced
	myConfig := strings.ReplaceAll(dpsConfig, "SERVER_URL", fakeRepository.URL)
	myConfig = strings.ReplaceAll(myConfig, "TESTING_DIR", TESTING_DIR)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}

	// create the DPS data directory
	os.Mkdir(config.Service.DataDirectory, 0755)

	// Start the service.
	log.Print("Starting test package service...\n")
	go func() {
		service, err = NewPackageService()
		if err != nil {
			log.Panicf("Couldn't construct the service: %s", err.Error())
		}
		err = service.Start(config.Service.Port)
		if err != nil {
			log.Panicf("Couldn't start package service: %s", err.Error())
		}
	}()

	// Give the service time to start up.
	time.Sleep(100 * time.Millisecond)

	// Change back to our original CWD.
	os.Chdir(CWD)
}

// Performs testing breakdown.
func breakdown() {

	if service != nil {
		// Gracefully shut the service down when it finishes its work.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		service.Shutdown(ctx)
	}

	if fakeRepository != nil {
		fakeRepository.Close()
	}

	if TESTING_DIR != "" {
		// Remove the testing directory and its contents.
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// sends a GET query
func get(resource string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, resource, http.NoBody)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// queries the service's root endpoint
func TestQueryRoot(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl)
	assert.Nil(err)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var root ServiceInfoResponse
	err = json.Unmarshal(respBody, &root)
	assert.Nil(err)
	assert.Equal("DPS", root.Name)
	assert.Equal(version, root.Version)
}

// queries the service's repositories endpoint
func TestQueryRepositories(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories")
	assert.Nil(err)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var repos []RepositoryResponse
	err = json.Unmarshal(respBody, &repos)
	assert.Nil(err)
	assert.Equal(2, len(repos))

	// sorted by name
	assert.Equal("arctic", repos[0].Id)
	assert.Equal("Arctic Data Center", repos[0].Name)
	assert.Equal("NCEAS", repos[0].Organization)

	assert.Equal("knb", repos[1].Id)
	assert.Equal("KNB Data Repository", repos[1].Name)
	assert.Equal("NCEAS", repos[1].Organization)
}

// queries a specific (valid) repository
func TestQueryValidRepository(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/knb")
	assert.Nil(err)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var repo RepositoryResponse
	err = json.Unmarshal(respBody, &repo)
	assert.Nil(err)
	assert.Equal("knb", repo.Id)
	assert.Equal("KNB Data Repository", repo.Name)
	assert.Equal("NCEAS", repo.Organization)
}

// queries a repository that doesn't exist
func TestQueryInvalidRepository(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/nonexistentrepo")
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
}

// resolves the package aggregating a data object
func TestResolvePackage(t *testing.T) {
	assert := assert.New(t)

	start := time.Now()
	resp, err := get(baseUrl + apiPrefix + "repositories/knb/packages/" +
		url.PathEscape(testDataId))
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var pkg PackageResponse
	err = json.Unmarshal(respBody, &pkg)
	assert.Nil(err)
	assert.Equal(testMapId, pkg.Id)
	assert.False(pkg.Virtual)
	assert.True(pkg.Complete)
	assert.Equal(testDataId, pkg.MemberId)
	assert.Equal("Soil moisture profiles", pkg.Title)
	assert.Equal(int64(6144), pkg.TotalBytes)
	assert.True(strings.HasPrefix(pkg.DownloadURL, fakeRepository.URL+"/package/"))

	memberIds := make([]string, 0)
	for _, member := range pkg.Members {
		memberIds = append(memberIds, member.Id)
	}
	assert.ElementsMatch([]string{testMetaId, testDataId}, memberIds)

	// the resolution lands in the operation journal
	records, err := journal.Records(start.Add(-time.Second), time.Now().Add(time.Second))
	assert.Nil(err)
	found := false
	for _, record := range records {
		if record.Operation == "resolve" && record.MapId == testMapId {
			found = true
			assert.Equal("succeeded", record.Status)
			assert.Equal(2, record.NumMembers)
		}
	}
	assert.True(found)
}

// attempts to resolve a package for an object that doesn't exist
func TestResolvePackageForUnknownObject(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/knb/packages/" +
		url.PathEscape("urn:uuid:777"))
	assert.Nil(err)
	assert.Equal(http.StatusNotFound, resp.StatusCode)
}

// fetches provenance for a package whose member derives from an external object
func TestPackageProvenance(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/knb/packages/" +
		url.PathEscape(testDataId) + "/provenance")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var prov ProvenanceResponse
	err = json.Unmarshal(respBody, &prov)
	assert.Nil(err)
	assert.Equal(testMapId, prov.Id)
	assert.Equal([]string{testNakedId}, prov.SourceDocuments)
	assert.ElementsMatch([]string{testMetaId, testDataId, testNakedId}, prov.RelatedObjects)

	found := false
	for _, member := range prov.Members {
		if member.Id == testDataId {
			found = true
			assert.Equal([]string{testNakedId}, member.Sources)
		}
	}
	assert.True(found)
}

// fetches the Frictionless manifest for a package
func TestPackageManifest(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/knb/packages/" +
		url.PathEscape(testDataId) + "/manifest")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	var descriptor struct {
		Name      string `json:"name"`
		Title     string `json:"title"`
		Resources []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"resources"`
	}
	err = json.Unmarshal(respBody, &descriptor)
	assert.Nil(err)
	assert.Equal("manifest", descriptor.Name)
	assert.Equal("Soil moisture profiles", descriptor.Title)
	assert.Equal(2, len(descriptor.Resources))

	resourceNames := make([]string, 0)
	for _, resource := range descriptor.Resources {
		resourceNames = append(resourceNames, resource.Name)
	}
	assert.ElementsMatch([]string{"metadata.xml", "moisture.csv"}, resourceNames)
}

// fetches a package's resource map as JSON-LD
func TestPackageGraph(t *testing.T) {
	assert := assert.New(t)

	resp, err := get(baseUrl + apiPrefix + "repositories/knb/packages/" +
		url.PathEscape(testDataId) + "/graph")
	assert.Nil(err)
	assert.Equal(http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	assert.Nil(err)
	defer resp.Body.Close()

	body := string(respBody)
	assert.Contains(body, "ore:aggregates")
	assert.Contains(body, testMapId)
}

// runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	var status int
	setup()
	if TESTING_DIR != "" {
		status = m.Run()
	}
	breakdown()
	os.Exit(status)
}
