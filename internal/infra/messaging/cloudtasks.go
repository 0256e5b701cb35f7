//go:build gcloud

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
	"github.com/KasumiMercury/primind-tax-reminder/internal/observability/logging"
)

// Cloud Tasks accepts HTTP dispatch deadlines between these bounds.
const (
	minDispatchDeadline = 15 * time.Second
	maxDispatchDeadline = 30 * time.Minute
)

type taskCreator interface {
	CreateTask(ctx context.Context, req *taskspb.CreateTaskRequest, opts ...gax.CallOption) (*taskspb.Task, error)
}

type CloudTasksOptions struct {
	ProjectID      string
	LocationID     string
	QueueID        string
	TargetURL      string
	ServiceAccount string

	// DispatchDeadline bounds the gateway call made by the queue. It is
	// clamped to the range Cloud Tasks accepts; zero leaves the queue default.
	DispatchDeadline time.Duration
	// Endpoint points the client at an emulator; it disables authentication.
	Endpoint string
}

// CloudTasksSender enqueues each message as an HTTP task that the messaging
// gateway consumes. Tasks are named after the message content, so enqueueing
// the same message twice on one day is reported as sent.
type CloudTasksSender struct {
	client    taskCreator
	closer    func() error
	queuePath string
	targetURL string
	account   string
	deadline  time.Duration
	now       func() time.Time
}

func NewCloudTasksSender(ctx context.Context, opts CloudTasksOptions) (*CloudTasksSender, error) {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts,
			option.WithEndpoint(opts.Endpoint),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := cloudtasks.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	s := newCloudTasksSender(client, opts)
	s.closer = client.Close
	return s, nil
}

func newCloudTasksSender(client taskCreator, opts CloudTasksOptions) *CloudTasksSender {
	return &CloudTasksSender{
		client:    client,
		closer:    func() error { return nil },
		queuePath: fmt.Sprintf("projects/%s/locations/%s/queues/%s", opts.ProjectID, opts.LocationID, opts.QueueID),
		targetURL: opts.TargetURL,
		account:   opts.ServiceAccount,
		deadline:  clampDeadline(opts.DispatchDeadline),
		now:       time.Now,
	}
}

func (s *CloudTasksSender) Send(ctx context.Context, recipient, text string) error {
	payload, err := json.Marshal(outboundMessage{To: recipient, Body: text})
	if err != nil {
		return domain.NewSendError(domain.ChannelMessage, recipient, "failed to marshal message", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		headers["x-request-id"] = requestID
	}

	httpRequest := &taskspb.HttpRequest{
		HttpMethod: taskspb.HttpMethod_POST,
		Url:        s.targetURL,
		Headers:    headers,
		Body:       payload,
	}
	if s.account != "" {
		httpRequest.AuthorizationHeader = &taskspb.HttpRequest_OidcToken{
			OidcToken: &taskspb.OidcToken{ServiceAccountEmail: s.account},
		}
	}

	key := messageKey(s.now().UTC().Format(time.DateOnly), recipient, text)
	task := &taskspb.Task{
		Name:        fmt.Sprintf("%s/tasks/msg-%s", s.queuePath, key),
		MessageType: &taskspb.Task_HttpRequest{HttpRequest: httpRequest},
	}
	if s.deadline > 0 {
		task.DispatchDeadline = durationpb.New(s.deadline)
	}
	req := &taskspb.CreateTaskRequest{
		Parent: s.queuePath,
		Task:   task,
	}

	slog.DebugContext(ctx, "enqueueing message to Cloud Tasks",
		slog.String("queue_path", s.queuePath),
		slog.String("recipient", recipient),
	)

	created, err := s.client.CreateTask(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.InfoContext(ctx, "message task already exists",
				slog.String("task_name", req.Task.Name),
				slog.String("recipient", recipient),
			)
			return nil
		}
		return domain.NewSendError(domain.ChannelMessage, recipient, "failed to create cloud task", err)
	}

	slog.InfoContext(ctx, "message task registered to Cloud Tasks",
		slog.String("task_name", created.GetName()),
		slog.String("recipient", recipient),
	)
	return nil
}

func clampDeadline(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return 0
	case d < minDispatchDeadline:
		return minDispatchDeadline
	case d > maxDispatchDeadline:
		return maxDispatchDeadline
	default:
		return d
	}
}

func (s *CloudTasksSender) Close() error {
	return s.closer()
}
