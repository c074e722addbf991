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

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/dataone/dps/auth"
	"github.com/dataone/dps/config"
	"github.com/dataone/dps/index"
	"github.com/dataone/dps/journal"
	"github.com/dataone/dps/manifest"
	"github.com/dataone/dps/packages"
	"github.com/dataone/dps/provenance"
	"github.com/dataone/dps/repository"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// This type implements the PackageService interface, resolving DataONE data
// packages against the repositories named in our configuration.
type packageService struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
}

// Extracts credentials from an authorization header. Repositories serve
// public objects to anonymous clients, so a missing header is not an error.
func providerFor(authorizationHeader string) auth.Provider {
	if strings.HasPrefix(authorizationHeader, "Bearer ") {
		token := strings.TrimSpace(authorizationHeader[len("Bearer "):])
		if token != "" {
			return auth.TokenProvider{Token: token}
		}
	}
	return auth.AnonymousProvider{}
}

// maps resolution errors to HTTP status errors
func httpError(err error) error {
	var notFound *packages.NotFoundError
	if errors.As(err, &notFound) {
		return huma.Error404NotFound(err.Error())
	}
	var objectNotFound *repository.ObjectNotFoundError
	if errors.As(err, &objectNotFound) {
		return huma.Error404NotFound(err.Error())
	}
	var unauthorized *repository.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return huma.Error401Unauthorized(err.Error())
	}
	return err
}

// writes a record of a package resolution to the operation journal
func recordResolve(repoName, pid string, pkg *packages.Package,
	start time.Time, resolveErr error) {
	if !journal.IsOpen() {
		return
	}
	record := journal.Record{
		Id:         uuid.New(),
		Operation:  "resolve",
		Pid:        pid,
		Repository: repoName,
		StartTime:  start,
		StopTime:   time.Now(),
		Status:     "succeeded",
	}
	if resolveErr != nil {
		record.Status = "failed"
	} else {
		record.MapId = pkg.Id
		record.NumMembers = pkg.Members.Len()
		record.TotalBytes = pkg.TotalSize()
	}
	if err := journal.RecordOperation(record); err != nil {
		slog.Error(fmt.Sprintf("Couldn't record resolve operation: %s", err))
	}
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root (no authorization needed for this one)
func (service *packageService) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
		},
	}, nil
}

type RepositoryOutput struct {
	Body RepositoryResponse `doc:"Information about the requested available repository"`
}

type RepositoriesOutput struct {
	Body []RepositoryResponse `doc:"A list of information about available repositories"`
}

// handler method for querying all repositories
func (service *packageService) getRepositories(ctx context.Context,
	input *struct{}) (*RepositoriesOutput, error) {

	slog.Info("Querying configured repositories...")
	output := &RepositoriesOutput{
		Body: make([]RepositoryResponse, 0),
	}
	for repoName, repo := range config.Repositories {
		output.Body = append(output.Body, RepositoryResponse{
			Id:           repoName,
			Name:         repo.Name,
			Organization: repo.Organization,
		})
	}
	slices.SortFunc(output.Body, func(r1, r2 RepositoryResponse) int { // sort by name
		return cmp.Compare(r1.Name, r2.Name)
	})
	return output, nil
}

// handler method for querying a single repository for its metadata
func (service *packageService) getRepository(ctx context.Context,
	input *struct {
		Id string `path:"repo" example:"knb" doc:"the abbreviated name of a repository"`
	}) (*RepositoryOutput, error) {

	slog.Info(fmt.Sprintf("Querying repository %s...", input.Id))
	repo, ok := config.Repositories[input.Id]
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("Repository %s not found", input.Id))
	}
	return &RepositoryOutput{
		Body: RepositoryResponse{
			Id:           input.Id,
			Name:         repo.Name,
			Organization: repo.Organization,
		},
	}, nil
}

type ResolvePackageInput struct {
	Authorization string `header:"authorization" doc:"Authorization header with a repository bearer token (optional)"`
	Repository    string `path:"repo" example:"knb" doc:"the abbreviated name of a repository"`
	Id            string `path:"id" example:"urn:uuid:3e1c0b3a" doc:"the identifier of a package member or resource map"`
	Archived      bool   `query:"archived" doc:"(Optional) include members whose index records are archived"`
}

// resolves the package aggregating the object with the given identifier,
// returning the package and a query client bound to the repository
func (service *packageService) resolve(ctx context.Context,
	input *ResolvePackageInput) (*packages.Package, *index.Client, error) {

	repo, ok := config.Repositories[input.Repository]
	if !ok {
		return nil, nil, huma.Error404NotFound(
			fmt.Sprintf("Repository %s not found", input.Repository))
	}
	client, err := index.NewClient(repo.QueryURL, providerFor(input.Authorization))
	if err != nil {
		return nil, nil, err
	}

	slog.Info(fmt.Sprintf("Resolving package for %s in repository %s...",
		input.Id, input.Repository))
	start := time.Now()
	resolver := packages.NewResolver(client)
	pkg, err := resolver.Resolve(ctx, input.Id, input.Archived)
	recordResolve(input.Repository, input.Id, pkg, start, err)
	if err != nil {
		return nil, nil, httpError(err)
	}
	return pkg, client, nil
}

// maps a resolved package (and any nested packages) to its response form
func packageResponse(pkg *packages.Package, packageBase string) PackageResponse {
	response := PackageResponse{
		Id:          pkg.Id,
		Virtual:     pkg.Virtual,
		MemberId:    pkg.MemberId,
		Complete:    pkg.Complete,
		Obsoletes:   pkg.Obsoletes,
		ObsoletedBy: pkg.ObsoletedBy,
		Members:     make([]MemberResponse, 0, pkg.Members.Len()),
		TotalBytes:  pkg.TotalSize(),
		DownloadURL: pkg.DownloadURL(packageBase),
	}
	if metadata := pkg.Metadata(); metadata != nil {
		response.Title = metadata.Title
	}
	for _, member := range pkg.Members.Members() {
		memberResponse := MemberResponse{
			Id:         member.Id,
			FormatType: member.FormatType,
			FormatId:   member.FormatId,
			FileName:   member.FileName,
			Size:       member.Size,
			Checksum:   member.Checksum,
		}
		if member.Nested != nil {
			nested := packageResponse(member.Nested, packageBase)
			memberResponse.NestedPackage = &nested
		}
		response.Members = append(response.Members, memberResponse)
	}
	return response
}

type PackageOutput struct {
	Body PackageResponse `doc:"The resolved package aggregating the requested object"`
}

// handler method for resolving a package
func (service *packageService) resolvePackage(ctx context.Context,
	input *ResolvePackageInput) (*PackageOutput, error) {

	pkg, _, err := service.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	repo := config.Repositories[input.Repository]
	return &PackageOutput{
		Body: packageResponse(pkg, repo.PackageURL),
	}, nil
}

type ProvenanceOutput struct {
	Body ProvenanceResponse `doc:"Provenance relations for the members of the requested package"`
}

// handler method for resolving a package's provenance
func (service *packageService) getProvenance(ctx context.Context,
	input *ResolvePackageInput) (*ProvenanceOutput, error) {

	pkg, client, err := service.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	assembler := provenance.NewAssembler(client)
	if err = assembler.Assemble(ctx, pkg); err != nil {
		return nil, httpError(err)
	}

	response := ProvenanceResponse{
		Id:      pkg.Id,
		Members: make([]MemberProvenanceResponse, 0, pkg.Members.Len()),
	}
	for _, member := range pkg.Members.Members() {
		memberResponse := MemberProvenanceResponse{Id: member.Id}
		for _, source := range member.ProvSources {
			memberResponse.Sources = append(memberResponse.Sources, source.Id)
		}
		for _, derivation := range member.ProvDerivations {
			memberResponse.Derivations = append(memberResponse.Derivations, derivation.Id)
		}
		response.Members = append(response.Members, memberResponse)
	}
	for _, sourcePkg := range pkg.SourcePackages {
		response.SourcePackages = append(response.SourcePackages, sourcePkg.Id)
	}
	for _, derivationPkg := range pkg.DerivationPackages {
		response.DerivationPackages = append(response.DerivationPackages, derivationPkg.Id)
	}
	for _, doc := range pkg.SourceDocs {
		response.SourceDocuments = append(response.SourceDocuments, doc.Id)
	}
	for _, doc := range pkg.DerivationDocs {
		response.DerivationDocuments = append(response.DerivationDocuments, doc.Id)
	}
	for _, record := range pkg.RelatedRecords {
		response.RelatedObjects = append(response.RelatedObjects, record.Id)
	}
	return &ProvenanceOutput{Body: response}, nil
}

type ManifestOutput struct {
	Body json.RawMessage `doc:"A Frictionless data package descriptor listing the package's members"`
}

// handler method for generating a package manifest
func (service *packageService) getManifest(ctx context.Context,
	input *ResolvePackageInput) (*ManifestOutput, error) {

	pkg, _, err := service.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	dataPackage, err := manifest.New(pkg)
	if err != nil {
		return nil, err
	}
	descriptor, err := json.Marshal(dataPackage.Descriptor())
	if err != nil {
		return nil, err
	}
	return &ManifestOutput{Body: json.RawMessage(descriptor)}, nil
}

type GraphOutput struct {
	Body map[string]any `doc:"The package's resource map graph as compacted JSON-LD"`
}

// handler method for exporting a package's resource map as JSON-LD
func (service *packageService) getGraph(ctx context.Context,
	input *ResolvePackageInput) (*GraphOutput, error) {

	pkg, _, err := service.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if pkg.Virtual {
		return nil, huma.Error404NotFound(
			fmt.Sprintf("Object %s belongs to no resource map", input.Id))
	}

	repo := config.Repositories[input.Repository]
	repoClient, err := repository.NewClient(repository.Endpoints{
		MetadataURL: repo.MetadataURL,
		ObjectURL:   repo.ObjectURL,
		PackageURL:  repo.PackageURL,
		ResolveURL:  repo.ResolveURL,
	}, providerFor(input.Authorization))
	if err != nil {
		return nil, err
	}

	graph, err := repoClient.ResourceMap(ctx, pkg.Id)
	if err != nil {
		return nil, httpError(err)
	}
	doc, err := graph.JSONLD()
	if err != nil {
		return nil, err
	}
	return &GraphOutput{Body: doc}, nil
}

// returns the uptime for the service in seconds
func (service *packageService) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a data package service given our configuration
func NewPackageService() (PackageService, error) {

	// validate our configuration
	if len(config.Repositories) == 0 {
		return nil, fmt.Errorf("No repositories were specified.")
	}

	service := new(packageService)
	service.Name = "DPS"
	service.Version = version
	service.Port = -1

	// set up routing
	service.Router = mux.NewRouter()
	api := humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(api, "/", service.getRoot)

	// API v1
	huma.Get(api, "/api/v1/repositories", service.getRepositories)
	huma.Get(api, "/api/v1/repositories/{repo}", service.getRepository)
	huma.Get(api, "/api/v1/repositories/{repo}/packages/{id}", service.resolvePackage)
	huma.Get(api, "/api/v1/repositories/{repo}/packages/{id}/provenance", service.getProvenance)
	huma.Get(api, "/api/v1/repositories/{repo}/packages/{id}/manifest", service.getManifest)
	huma.Get(api, "/api/v1/repositories/{repo}/packages/{id}/graph", service.getGraph)

	return service, nil
}

// starts the data package service
func (service *packageService) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", config.Service.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, config.Service.MaxConnections)

	// open the operation journal
	if !journal.IsOpen() {
		err = journal.Init()
		if err != nil {
			return err
		}
	}

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *packageService) Shutdown(ctx context.Context) error {
	if journal.IsOpen() {
		journal.Finalize()
	}
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *packageService) Close() {
	if journal.IsOpen() {
		journal.Finalize()
	}
	if service.Server != nil {
		service.Server.Close()
	}
}
