package s3

type Object struct {
	Bucket      string
	Key         string
	Body        []byte
	ContentType string
}
