package lambda

type FunctionVersion struct {
	FunctionArn  string
	FunctionName string
	Version      string
	CodeSha256   string
}
