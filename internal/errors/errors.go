package errors

import "errors"

var (
	ErrQueueNameRequired   = errors.New("WEBHOOKS_QUEUE_NAME is required")
	ErrBucketNameRequired  = errors.New("S3_BUCKET_NAME is required")
	ErrInvalidBatchSize    = errors.New("max batch size must be between 0 and 10 (0 uses the default)")
	ErrInvalidWaitTime     = errors.New("max wait time must be between 0 and 20 seconds")
	ErrInvalidPollingLimit = errors.New("messages polling limit must be positive")
	ErrInvalidMessageBody  = errors.New("message body is not a JSON object")
	ErrDeleteFailed        = errors.New("sqs delete failed")
	ErrAlreadyAcknowledged = errors.New("message already acknowledged")
	ErrMissingDagName      = errors.New("dag name missing from record")
	ErrDagsBucketRequired  = errors.New("DAGS_S3_BUCKET is required")
)
