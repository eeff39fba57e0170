package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/entity"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
)

// RemoteBackendName identifies the KServe v2 backend
const RemoteBackendName = "remote"

// RemoteBackend implements service.InferenceBackend against an inference server
type RemoteBackend struct {
	client   *MLClient
	logger   *zap.Logger
	revision string
}

// NewRemoteBackend checks that the remote model is ready and exposes a
// two-class logits output. Any failure is reported as service.ErrModelLoad.
func NewRemoteBackend(ctx context.Context, client *MLClient, logger *zap.Logger) (*RemoteBackend, error) {
	if err := client.Ready(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrModelLoad, err)
	}

	meta, err := client.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrModelLoad, err)
	}
	if err := checkLogitsOutput(meta); err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", service.ErrModelLoad, client.Model(), err)
	}

	logger.Info("Remote model ready",
		zap.String("model", meta.Name),
		zap.String("platform", meta.Platform),
		zap.Strings("versions", meta.Versions),
	)

	return &RemoteBackend{client: client, logger: logger, revision: remoteRevision(meta)}, nil
}

// Forward sends one encoding to the inference server and returns its logits
func (b *RemoteBackend) Forward(ctx context.Context, enc *entity.Encoding) (entity.Logits, error) {
	n := int64(enc.Len())
	if n == 0 {
		return entity.Logits{}, fmt.Errorf("%w: empty encoding", service.ErrInference)
	}

	req := &InferRequest{
		ID: uuid.NewString(),
		Inputs: []InferTensor{
			int64Tensor(InputIDsTensor, enc.IDs),
			int64Tensor(AttentionMaskTensor, enc.AttentionMask),
			int64Tensor(TokenTypeIDsTensor, enc.TypeIDs),
		},
		Outputs: []RequestedOutput{{Name: LogitsTensor}},
	}

	resp, err := b.client.Infer(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return entity.Logits{}, ctxErr
		}
		b.logger.Warn("Remote inference failed", zap.String("infer_id", req.ID), zap.Error(err))
		return entity.Logits{}, fmt.Errorf("%w: %v", service.ErrInference, err)
	}

	out, ok := resp.Output(LogitsTensor)
	if !ok {
		return entity.Logits{}, fmt.Errorf("%w: response has no %s output", service.ErrInference, LogitsTensor)
	}

	scores := make([]float32, len(out.Data))
	for i, v := range out.Data {
		scores[i] = float32(v)
	}
	logits, err := entity.NewLogits(scores)
	if err != nil {
		return entity.Logits{}, fmt.Errorf("%w: %v", service.ErrInference, err)
	}
	if !logits.IsFinite() {
		return entity.Logits{}, fmt.Errorf("%w: non-finite logits %v", service.ErrInference, scores)
	}

	return logits, nil
}

// Name returns the backend kind
func (b *RemoteBackend) Name() string {
	return RemoteBackendName
}

// Revision returns the served model name and versions
func (b *RemoteBackend) Revision() string {
	return b.revision
}

// Close releases idle connections to the inference server
func (b *RemoteBackend) Close() error {
	b.client.httpClient.CloseIdleConnections()
	return nil
}

func int64Tensor(name string, values []int32) InferTensor {
	data := make([]float64, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	return InferTensor{
		Name:     name,
		Shape:    []int64{1, int64(len(values))},
		Datatype: "INT64",
		Data:     data,
	}
}

// remoteRevision renders model metadata as name@v1,v2 or name alone when
// the server reports no versions.
func remoteRevision(meta *ModelMetadata) string {
	if len(meta.Versions) == 0 {
		return meta.Name
	}
	return meta.Name + "@" + strings.Join(meta.Versions, ",")
}

// checkLogitsOutput accepts a logits output shaped [-1,2] or [1,2]
func checkLogitsOutput(meta *ModelMetadata) error {
	for _, out := range meta.Outputs {
		if out.Name != LogitsTensor {
			continue
		}
		if len(out.Shape) != 2 || (out.Shape[0] != -1 && out.Shape[0] != 1) || out.Shape[1] != entity.NumClasses {
			return fmt.Errorf("output %s has shape %v, want [-1 %d]", LogitsTensor, out.Shape, entity.NumClasses)
		}
		return nil
	}
	return fmt.Errorf("no %s output", LogitsTensor)
}
