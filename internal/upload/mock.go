package upload

import (
	"context"
	"fmt"
	"time"
)

const mockBaseURL = "https://res.cloudinary.com/demo/image/upload/"

// Mock pretends to push images to a hosted image CDN. Nothing is stored.
type Mock struct {
	latency time.Duration
	now     func() time.Time
}

func NewMock(latency time.Duration) *Mock {
	return &Mock{latency: latency, now: time.Now}
}

func (m *Mock) Put(ctx context.Context, obj Object) (*Image, error) {
	if err := sleep(ctx, m.latency); err != nil {
		return nil, err
	}
	return &Image{
		URL:      mockBaseURL + obj.Name,
		PublicID: fmt.Sprintf("uploads/%d-%s", m.now().UnixMilli(), obj.Name),
		Width:    800,
		Height:   600,
	}, nil
}

func (m *Mock) Delete(ctx context.Context, publicID string) error {
	return sleep(ctx, m.latency/2)
}
