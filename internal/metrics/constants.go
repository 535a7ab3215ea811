package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal    = "cowprofit_http_requests_total"
	MetricNameHTTPRequestDuration  = "cowprofit_http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "cowprofit_http_requests_in_flight"

	MetricNamePlansTotal       = "cowprofit_plans_total"
	MetricNamePlanDuration     = "cowprofit_plan_duration_seconds"
	MetricNameEstimatesTotal   = "cowprofit_estimates_total"
	MetricNameEstimateWarnings = "cowprofit_estimate_warnings_total"
	MetricNamePlanCacheLookups = "cowprofit_plan_cache_lookups_total"
	MetricNameGameDataReloads  = "cowprofit_game_data_reloads_total"
)

// Help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Number of HTTP requests currently being served"

	HelpTextPlansTotal       = "Plans computed, by outcome"
	HelpTextPlanDuration     = "Time spent computing a plan in seconds"
	HelpTextEstimatesTotal   = "Session estimates computed, by outcome"
	HelpTextEstimateWarnings = "Levels clamped while estimating sessions"
	HelpTextPlanCacheLookups = "Fundamental matrix cache lookups, by result"
	HelpTextGameDataReloads  = "Game data reloads triggered by file changes"
)

// Labels
const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelOutcome   = "outcome"
	LabelResult    = "result"
	LabelTransport = "transport"
)

// Label values
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"

	ResultHit  = "hit"
	ResultMiss = "miss"
)

// HTTPLatencyBuckets covers sub-millisecond plans up to slow large sweeps.
var HTTPLatencyBuckets = []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
