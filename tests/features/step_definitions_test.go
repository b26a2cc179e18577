package features

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bench-arena/bench-arena/cmd/bench_arena/server"
	"github.com/bench-arena/bench-arena/internal/admission"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/datasets"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/engine/promotion"
	"github.com/bench-arena/bench-arena/internal/engine/scheduler"
	"github.com/bench-arena/bench-arena/internal/engine/scoring"
	"github.com/bench-arena/bench-arena/internal/evaluation"
	"github.com/bench-arena/bench-arena/internal/imagebuilder"
	"github.com/bench-arena/bench-arena/internal/logging"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/internal/registration"
	"github.com/bench-arena/bench-arena/internal/sandbox"
	"github.com/bench-arena/bench-arena/internal/storage"
	"github.com/bench-arena/bench-arena/internal/validation"

	"github.com/cucumber/godog"
)

var (
	// testConfig to be used throughout all the test suites
	// for the global configuration
	api *apiFeature
)

type apiFeature struct {
	baseURL    *url.URL
	server     *server.Server
	httpServer *http.Server
	client     *http.Client
}

// this is used for a scenario to ensure that scenarios do not overwrite
// data from other scenarios...
type scenarioConfig struct {
	scenarioName string
	apiFeature   *apiFeature
	response     *http.Response
	body         []byte

	lastId string

	assets map[string][]string
}

func logDebug(format string, a ...any) {
	fmt.Printf(format, a...)
}

func checkBaseURL(uri *url.URL, from string) {
	if uri == nil {
		panic("Invalid baseURL: nil from " + from)
	}
	if uri.String() == "" {
		panic("Empty baseURL from  " + from)
	}
}

func createApiFeature() (*apiFeature, error) {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	if serverURL := os.Getenv("SERVER_URL"); serverURL != "" {
		uri, err := url.Parse(serverURL)
		if err != nil {
			return nil, fmt.Errorf("Invalid SERVER_URL: %v", err)
		}
		checkBaseURL(uri, serverURL)
		return &apiFeature{client: client, baseURL: uri}, nil
	}

	port := 8080
	if sport := os.Getenv("PORT"); sport != "" {
		if eport, err := strconv.Atoi(sport); err != nil {
			logDebug("Invalid PORT: %v\n", err.Error())
		} else {
			port = eport
		}
	}

	uri := fmt.Sprintf("http://localhost:%d", port)
	baseURL, err := url.Parse(uri)
	if err != nil {
		panic(fmt.Errorf("Invalid baseURL: %v", err))
	}
	checkBaseURL(baseURL, uri)

	api := &apiFeature{client: client, baseURL: baseURL}
	api.startLocalServer(port)
	return api, nil
}

func (a *apiFeature) startLocalServer(port int) error {
	logger := logging.FallbackLogger()
	validate, err := validation.New()
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	serviceConfig, err := config.LoadConfig(logger, "0.0.1", "local", time.Now().Format(time.RFC3339), "../../config")
	if err != nil {
		return fmt.Errorf("failed to load service config: %w", err)
	}
	serviceConfig.Service.Port = port
	serviceConfig.Service.LocalMode = true // set local mode for testing

	store, err := storage.NewStorage(serviceConfig.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	logger.Info("Storage created.")

	sb, err := sandbox.NewSandbox(logger, serviceConfig)
	if err != nil {
		return fmt.Errorf("failed to create sandbox: %w", err)
	}
	datasetProvider, err := datasets.NewProvider(logger, serviceConfig.Datasets)
	if err != nil {
		return fmt.Errorf("failed to create dataset provider: %w", err)
	}
	builder, err := imagebuilder.NewBuilder(logger, serviceConfig.Baselines)
	if err != nil {
		return fmt.Errorf("failed to create image builder: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	runTimeout := 30 * time.Minute
	daySched := scheduler.New(store, sb, datasetProvider, evaluation.NewValidator(logger), logger, m, runTimeout)
	scoringEngine := scoring.New(store, logger, runTimeout)
	promotionWorkflow := promotion.New(store, builder, logger, m)
	orch := orchestrator.New(store, daySched, scoringEngine, promotionWorkflow, logger, m)
	registrationService := registration.New(store, admission.NewScanner(logger), logger)

	a.server, err = server.NewServer(logger, serviceConfig, store, validate, registrationService, orch, m)
	if err != nil {
		return err
	}

	// Create a test server
	handler, err := a.server.SetupRoutes()
	if err != nil {
		return err
	}
	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}

	// Start server in background
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}

	go func() {
		a.httpServer.Serve(listener)
	}()

	return nil
}

func (a *apiFeature) cleanup(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		a.httpServer.Shutdown(ctx)
	}
	return ctx, nil
}

func (tc *scenarioConfig) theServiceIsRunning(ctx context.Context) error {
	// Check that the server is actually running by sending a request to the health endpoint
	for range 10 {
		if err := tc.checkHealthEndpoint(); err != nil {
			logDebug("Error checking health endpoint: %v\n", err.Error())
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}

	return nil
}

func (tc *scenarioConfig) checkHealthEndpoint() error {
	if err := tc.iSendARequestTo("GET", "/api/v1/health"); err != nil {
		return fmt.Errorf("failed to send health check request: %w for URL %s", err, tc.apiFeature.baseURL.String())
	}
	if tc.response.StatusCode != 200 {
		return fmt.Errorf("expected status 200, got %d", tc.response.StatusCode)
	}

	match := "\"status\": \"healthy\""
	if !strings.Contains(string(tc.body), match) {
		return fmt.Errorf("expected body to contain %s, got %s", match, string(tc.body))
	}

	return nil
}

func (tc *scenarioConfig) iSendARequestTo(method, path string) error {
	return tc.iSendARequestToWithBody(method, path, "")
}

func (tc *scenarioConfig) findFile(fileName string) (string, error) {
	file := filepath.Join("test_data", fileName)
	if _, err := os.Stat(file); os.IsNotExist(err) {
		path, _ := os.Getwd()
		return "", fmt.Errorf("test file %s not found in directory %s", fileName, path)
	}
	return file, nil
}

func (tc *scenarioConfig) getFile(fileName string) (io.ReadCloser, error) {
	filePath, err := tc.findFile(fileName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (tc *scenarioConfig) getRequestBody(body string) (io.Reader, error) {
	if body == "" {
		return nil, nil
	}
	// this can be an inline body or a test file
	if strings.HasPrefix(body, "file:/") {
		return tc.getFile(strings.TrimPrefix(body, "file:/"))
	}
	return strings.NewReader(body), nil
}

func (sc *scenarioConfig) addAsset(assetName, id string) {
	sc.assets[assetName] = append(sc.assets[assetName], id)
	logDebug("Added asset id %s for id %s\n", id, assetName)
}

func (sc *scenarioConfig) removeAsset(assetName, id string) {
	ids := sc.assets[assetName]
	if slices.Contains(ids, id) {
		sc.assets[assetName] = slices.DeleteFunc(ids, func(s string) bool {
			return s == id
		})
	}
	logDebug("Removed asset id %s for id %s\n", id, assetName)
}

func extractId(body []byte) (string, error) {
	obj := make(map[string]interface{})
	err := json.Unmarshal(body, &obj)
	if err != nil {
		return "", err
	}
	if id, ok := obj["id"]; ok {
		return id.(string), nil
	}
	return "", nil
}

func extractIdFromPath(path string) string {
	if _, after, found := strings.Cut(path, "/api/v1/tournaments/"); found {
		if after != "" {
			if id, _, found := strings.Cut(after, "/"); found {
				return id
			}
			if id, _, found := strings.Cut(after, "?"); found {
				return id
			}
			return after
		}
	}
	return ""
}

// firstPathSegment matches the first path segment after /api/v1/
var firstPathSegment = regexp.MustCompile(`^/api/v1/([^/?]+).*$`)

func getAssetName(path string) (string, error) {
	if matches := firstPathSegment.FindStringSubmatch(path); len(matches) >= 2 {
		return matches[1], nil
	}
	return "", fmt.Errorf("no first path segment found in path %s", path)
}

func (tc *scenarioConfig) iSendARequestToWithBody(method, path, body string) error {
	if strings.Contains(path, "{id}") {
		if tc.lastId == "" {
			return fmt.Errorf("last ID is not set")
		}
		path = strings.Replace(path, "{id}", tc.lastId, 1)
	}

	url := fmt.Sprintf("%s%s", tc.apiFeature.baseURL.String(), path)
	entity, err := tc.getRequestBody(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, entity)
	if err != nil {
		return err
	}

	tc.response, err = tc.apiFeature.client.Do(req)
	if err != nil {
		return err
	}

	tc.body, err = io.ReadAll(tc.response.Body)
	if err != nil {
		return err
	}
	defer tc.response.Body.Close()

	if method == http.MethodPost && tc.response.StatusCode == http.StatusCreated {
		assetName, err := getAssetName(path)
		if err != nil {
			return err
		}
		switch assetName {
		case "tournaments":
			if !strings.Contains(path, "/participants") {
				tc.lastId, err = extractId(tc.body)
				if err != nil {
					return err
				}
				if tc.lastId == "" {
					return fmt.Errorf("response does not contain an ID in response %s", string(tc.body))
				}
				tc.addAsset(assetName, tc.lastId)
			}
		default:
			// nothing to do here
		}
	}

	if method == http.MethodDelete {
		assetName, err := getAssetName(path)
		if err != nil {
			return err
		}
		switch assetName {
		case "tournaments":
			id := extractIdFromPath(path)
			if id == "" {
				return fmt.Errorf("no ID found in path %s", path)
			}
			tc.removeAsset(assetName, id)
		default:
			// nothing to do here
		}
	}

	return nil
}

func (tc *scenarioConfig) theResponseStatusShouldBe(status int) error {
	if tc.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, tc.response.StatusCode, string(tc.body))
	}
	return nil
}

func (tc *scenarioConfig) theResponseShouldBeJSON() error {
	contentType := tc.response.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return fmt.Errorf("expected JSON content type, got %s", contentType)
	}

	var js interface{}
	if err := json.Unmarshal(tc.body, &js); err != nil {
		return fmt.Errorf("response is not valid JSON: %v", err)
	}

	return nil
}

func (tc *scenarioConfig) theResponseShouldContainWithValue(key, value string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.body, &data); err != nil {
		return err
	}

	if fmt.Sprintf("%v", data[key]) != value {
		return fmt.Errorf("expected %s to be %s, got %v", key, value, data[key])
	}

	return nil
}

func (tc *scenarioConfig) theResponseShouldContain(key string) error {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.body, &data); err != nil {
		return err
	}

	if _, ok := data[key]; !ok {
		return fmt.Errorf("response does not contain key: %s", key)
	}

	return nil
}

func (tc *scenarioConfig) theResponseShouldContainPrometheusMetrics() error {
	bodyStr := string(tc.body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		return fmt.Errorf("response does not appear to be Prometheus metrics format")
	}
	return nil
}

func (tc *scenarioConfig) saveScenarioName(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	tc.scenarioName = sc.Name
	return ctx, nil
}

// assetCleanup cancels every tournament a scenario created so later
// scenarios start from a predictable state.
func (tc *scenarioConfig) assetCleanup(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	for assetName, ids := range tc.assets {
		for _, id := range ids {
			path := fmt.Sprintf("/api/v1/%s/%s", assetName, id)
			err := tc.iSendARequestTo("DELETE", path)
			if err != nil {
				return ctx, fmt.Errorf("failed to delete asset with id '%s' %s: %w", assetName, id, err)
			}
			if tc.response.StatusCode != 200 {
				return ctx, fmt.Errorf("expected status 200, got %d for asset id '%s' with path %s", tc.response.StatusCode, id, path)
			}
			logDebug("Cancelled asset %s with status %d\n", path, tc.response.StatusCode)
		}
	}
	tc.assets = nil
	return ctx, nil
}

func createScenarioConfig(apiConfig *apiFeature) *scenarioConfig {
	conf := new(scenarioConfig)
	conf.assets = make(map[string][]string)

	conf.apiFeature = apiConfig

	return conf
}

func setUpTestConf() {
	apiFeature, err := createApiFeature()
	if err != nil {
		panic(fmt.Errorf("failed to create API feature: %v", err))
	}
	api = apiFeature
}

func waitForService() {
	tc := createScenarioConfig(api)
	for range 10 {
		if err := tc.checkHealthEndpoint(); err != nil {
			logDebug("Error checking health endpoint: %v\n", err.Error())
			time.Sleep(1 * time.Second)
		} else {
			return
		}
	}
	panic("Stopped API Tests. Service is not ready for testing.\n")
}

func tidyUpTests() {
	if api != nil {
		api.cleanup(context.Background(), nil, nil)
	}
}

func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(setUpTestConf)
	ctx.BeforeSuite(waitForService)
	ctx.AfterSuite(tidyUpTests)
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := createScenarioConfig(api)

	ctx.Before(tc.saveScenarioName)
	ctx.After(tc.assetCleanup)

	ctx.Step(`^the service is running$`, tc.theServiceIsRunning)
	ctx.Step(`^I send a (GET|DELETE|POST) request to "([^"]*)"$`, tc.iSendARequestTo)
	ctx.Step(`^I send a (POST|PUT|PATCH) request to "([^"]*)" with body "([^"]*)"$`, tc.iSendARequestToWithBody)
	ctx.Step(`^the response code should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, tc.theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)" with value "([^"]*)"$`, tc.theResponseShouldContainWithValue)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the response should contain Prometheus metrics$`, tc.theResponseShouldContainPrometheusMetrics)
}
