package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MSettledAmount           MetricKey = "settlement_amount_total"
)

// Label keys for each instrument. The registry uses them when it creates the vectors,
// so every caller must pass exactly these labels.
var MetricLabels = map[MetricKey][]string{
	MUsecaseRequests:         {"use_case", "outcome"},
	MUsecaseDuration:         {"use_case"},
	MHTTPRequests:            {"method", "route", "status"},
	MHTTPRequestDuration:     {"method", "route", "status"},
	MExternalRequests:        {"peer", "endpoint", "outcome"},
	MExternalRequestDuration: {"peer", "endpoint"},
	MSettledAmount:           {"kind"},
}

// MetricHelp documents each instrument for the exposition format.
var MetricHelp = map[MetricKey]string{
	MUsecaseRequests:         "Total number of use case invocations.",
	MUsecaseDuration:         "Duration of use case execution in seconds.",
	MHTTPRequests:            "Total number of HTTP requests.",
	MHTTPRequestDuration:     "Duration of HTTP requests in seconds.",
	MExternalRequests:        "Total number of calls to external peers (event bus, lock service).",
	MExternalRequestDuration: "Duration of calls to external peers in seconds.",
	MSettledAmount:           "Sum of prices debited from user balances.",
}
