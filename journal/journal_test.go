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

// These tests must be run serially, since the journal is coordinated by a
// single goroutine.

package journal

import (
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dataone/dps/config"
	"github.com/dataone/dps/dpstest"
)

const journalConfig string = `
service:
  port: 8080
  max_connections: 10
  data_dir: TESTING_DIR/data
repositories:
  knb:
    name: KNB Data Repository
    organization: NCEAS
    query_url: https://knb.ecoinformatics.org/knb/d1/mn/v2/query/solr/?
    metadata_url: https://knb.ecoinformatics.org/knb/d1/mn/v2/meta/
    object_url: https://knb.ecoinformatics.org/knb/d1/mn/v2/object/
    resolve_url: https://cn.dataone.org/cn/v2/resolve/
`

var TESTING_DIR string

// runs all tests serially
func TestRunner(t *testing.T) {
	tester := SerialTests{Test: t}
	tester.TestInitAndFinalize()
	tester.TestRecordResolveOperation()
	tester.TestRecordFailedOperation()
	tester.TestRejectsInvalidRecords()
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}

// this function gets called at the beginning of a test session
func setup() {
	dpstest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "data-package-service-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}
	os.Chdir(TESTING_DIR)

	myConfig := strings.ReplaceAll(journalConfig, "TESTING_DIR", TESTING_DIR)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}

	// create the data directory where the operation journal lives
	err = os.Mkdir(config.Service.DataDirectory, 0755)
	if err != nil {
		log.Panicf("Couldn't create data directory: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	if IsOpen() {
		Finalize()
	}
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// To run the tests serially, we attach them to a SerialTests type and
// have them run by a single test runner.
type SerialTests struct{ Test *testing.T }

func (t *SerialTests) TestInitAndFinalize() {
	assert := assert.New(t.Test)

	assert.False(IsOpen())
	err := Init()
	assert.Nil(err)
	assert.True(IsOpen())
	err = Finalize()
	assert.Nil(err)
	assert.False(IsOpen())
}

func (t *SerialTests) TestRecordResolveOperation() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	manifestString := `{"name":"manifest","profile":"data-package","created":"2024-06-01T10:30:00Z","keywords":["dps","manifest"],"resources":[{"name":"metadata.xml","path":"metadata.xml","bytes":4096},{"name":"moisture.csv","path":"moisture.csv","bytes":2048,"hash":"0ac4b6ed2b5e85acab2f27b4c173e16f"}]}`
	manifest, err := datapackage.FromString(manifestString, "manifest.json", validator.InMemoryLoader())
	assert.Nil(err)

	startTime := time.Now()
	record := Record{
		Id:         uuid.New(),
		Operation:  "resolve",
		Pid:        "urn:uuid:3000",
		MapId:      "resource_map_urn:uuid:1000",
		Repository: "knb",
		StartTime:  startTime,
		StopTime:   time.Now(),
		Status:     "succeeded",
		NumMembers: 2,
		TotalBytes: int64(6144),
		Manifest:   manifest,
	}
	err = RecordOperation(record)
	assert.Nil(err)

	records, err := Records(startTime.Add(-time.Minute), time.Now().Add(time.Minute))
	assert.Nil(err)
	assert.Len(records, 1)
	record1 := records[0]
	assert.Equal(record.Id, record1.Id)
	assert.Equal(record.Operation, record1.Operation)
	assert.Equal(record.Pid, record1.Pid)
	assert.Equal(record.MapId, record1.MapId)
	assert.Equal(record.Repository, record1.Repository)
	assert.Equal(record.Status, record1.Status)
	assert.Equal(record.NumMembers, record1.NumMembers)
	assert.Equal(record.TotalBytes, record1.TotalBytes)
	assert.Equal(manifest.ResourceNames(), record1.Manifest.ResourceNames())

	err = Finalize()
	assert.Nil(err)
}

func (t *SerialTests) TestRecordFailedOperation() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	startTime := time.Now()
	record := Record{
		Id:         uuid.New(),
		Operation:  "save",
		Pid:        "resource_map_urn:uuid:1000",
		Repository: "knb",
		StartTime:  startTime,
		StopTime:   time.Now(),
		Status:     "failed",
	}
	err = RecordOperation(record)
	assert.Nil(err)

	records, err := Records(startTime.Add(-time.Second), time.Now().Add(time.Second))
	assert.Nil(err)
	found := false
	for _, r := range records {
		if r.Id == record.Id {
			found = true
			assert.Equal("failed", r.Status)
			assert.Nil(r.Manifest)
		}
	}
	assert.True(found)

	err = Finalize()
	assert.Nil(err)
}

func (t *SerialTests) TestRejectsInvalidRecords() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	var invalid *NewRecordError
	err = RecordOperation(Record{Id: uuid.New(), Operation: "transmogrify", Status: "succeeded"})
	assert.ErrorAs(err, &invalid)

	err = RecordOperation(Record{Id: uuid.New(), Operation: "resolve", Status: "almost"})
	assert.ErrorAs(err, &invalid)

	err = Finalize()
	assert.Nil(err)

	var notOpen *NotOpenError
	err = RecordOperation(Record{Id: uuid.New(), Operation: "resolve", Status: "succeeded"})
	assert.ErrorAs(err, &notOpen)
}
