package cloudwatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// logsAPI is the part of the CloudWatch Logs client the sink uses.
type logsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Sink implements ports.LogSink on top of CloudWatch Logs.
type Sink struct {
	client logsAPI
}

var _ ports.LogSink = (*Sink)(nil)

func NewSink(cfg aws.Config) *Sink {
	return &Sink{client: cloudwatchlogs.NewFromConfig(cfg)}
}

// EnsureLogGroup creates the group unless it already exists.
func (s *Sink) EnsureLogGroup(ctx context.Context, name string) (domain.ProvisionResult, error) {
	_, err := s.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: aws.String(name),
	})
	return s.provisionResult("create log group", err)
}

// EnsureLogStream creates the stream inside group unless it already exists.
func (s *Sink) EnsureLogStream(ctx context.Context, group, name string) (domain.ProvisionResult, error) {
	_, err := s.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(name),
	})
	return s.provisionResult("create log stream", err)
}

func (s *Sink) provisionResult(action string, err error) (domain.ProvisionResult, error) {
	switch {
	case err == nil:
		return domain.Created, nil
	case isAlreadyExists(err):
		return domain.AlreadyExisted, nil
	default:
		return 0, classifyLogsError(action, err)
	}
}

// AppendLogEvent puts a single event. CloudWatch wants milliseconds; the
// event only carries whole seconds, so the value is scaled, not refined.
func (s *Sink) AppendLogEvent(ctx context.Context, target domain.LogSinkTarget, event domain.LogEvent) error {
	out, err := s.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(target.Group),
		LogStreamName: aws.String(target.Stream),
		LogEvents: []types.InputLogEvent{
			{
				Timestamp: aws.Int64(event.Timestamp * 1000),
				Message:   aws.String(event.Message),
			},
		},
	})
	if err != nil {
		return classifyLogsError("put log events", err)
	}

	if out != nil && out.RejectedLogEventsInfo != nil {
		if reason := rejectionReason(out.RejectedLogEventsInfo); reason != "" {
			return domain.BackendError(awsHostMessage, fmt.Errorf("log event rejected: %s", reason))
		}
	}
	return nil
}

func rejectionReason(info *types.RejectedLogEventsInfo) string {
	var reasons []string
	if info.TooOldLogEventEndIndex != nil {
		reasons = append(reasons, "too old")
	}
	if info.TooNewLogEventStartIndex != nil {
		reasons = append(reasons, "too new")
	}
	if info.ExpiredLogEventEndIndex != nil {
		reasons = append(reasons, "expired")
	}
	return strings.Join(reasons, ", ")
}
