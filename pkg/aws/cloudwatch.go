package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const logFlushInterval = 5 * time.Second

// CloudWatchLogsWriter is an io.Writer that ships log lines to a CloudWatch
// Logs stream. Lines are buffered and flushed every few seconds or on Close.
type CloudWatchLogsWriter struct {
	client        *cloudwatchlogs.Client
	logGroupName  string
	logStreamName string

	mu      sync.Mutex
	pending []types.InputLogEvent
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewCloudWatchLogsWriter creates the group (if missing) and a fresh stream
// named after the service and start time, then starts the flush loop.
func NewCloudWatchLogsWriter(ctx context.Context, cfg sdkaws.Config, logGroup, serviceName string) (*CloudWatchLogsWriter, error) {
	if logGroup == "" {
		logGroup = "/storefront/services"
	}
	w := &CloudWatchLogsWriter{
		client:        cloudwatchlogs.NewFromConfig(cfg),
		logGroupName:  logGroup,
		logStreamName: fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()),
		done:          make(chan struct{}),
	}

	if _, err := w.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: sdkaws.String(w.logGroupName),
	}); err != nil {
		var exists *types.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return nil, fmt.Errorf("failed to create log group: %w", err)
		}
	}
	if _, err := w.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(w.logGroupName),
		LogStreamName: sdkaws.String(w.logStreamName),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *CloudWatchLogsWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.pending = append(w.pending, types.InputLogEvent{
		Message:   sdkaws.String(string(p)),
		Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
	})
	w.mu.Unlock()
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer.
func (w *CloudWatchLogsWriter) Sync() error {
	return w.flush(context.Background())
}

func (w *CloudWatchLogsWriter) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.flush(context.Background())
}

func (w *CloudWatchLogsWriter) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if err := w.flush(context.Background()); err != nil {
				// the logger itself writes here, so report on stderr
				fmt.Fprintf(os.Stderr, "CloudWatch write error: %v\n", err)
			}
		}
	}
}

func (w *CloudWatchLogsWriter) flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(w.logGroupName),
		LogStreamName: sdkaws.String(w.logStreamName),
		LogEvents:     batch,
	})
	if err != nil {
		return fmt.Errorf("failed to put log events: %w", err)
	}
	return nil
}
