package types

type RunMode string

const (
	// ModeLocal runs the API server and the activation consumer in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server; webhook activations are processed inline
	ModeAPI RunMode = "api"
	// ModeAWSLambdaAPI runs the API server behind AWS Lambda
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// CustomerPolicy decides whether an enrollment creates a new gateway customer
// or reuses one that already exists for the payer email.
type CustomerPolicy string

const (
	CustomerPolicyCreate CustomerPolicy = "create"
	CustomerPolicyReuse  CustomerPolicy = "reuse"
)
