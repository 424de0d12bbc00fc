package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamRelay implements Relay on a NATS JetStream object store
// bucket fronted by an HTTP gateway serving bucket objects by key.
type JetStreamRelay struct {
	conn          *nats.Conn
	store         jetstream.ObjectStore
	publicBaseURL string
}

// NewJetStreamRelay connects to NATS and ensures the bucket exists.
// publicBaseURL is the externally reachable prefix objects are served
// under, e.g. "https://files.example.com/chat".
func NewJetStreamRelay(ctx context.Context, natsURL, bucket, publicBaseURL string) (*JetStreamRelay, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "chat upload storage",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("create object store bucket: %w", err)
		}
	}

	return &JetStreamRelay{
		conn:          conn,
		store:         store,
		publicBaseURL: publicBaseURL,
	}, nil
}

// Store uploads the payload and returns its public URL. Object keys are
// prefixed with a random ID so concurrent uploads never clobber each other.
func (r *JetStreamRelay) Store(ctx context.Context, data []byte, suggestedName, contentType, folder string) (string, error) {
	key := path.Join(folder, uuid.NewString()+"-"+path.Base(suggestedName))

	meta := jetstream.ObjectMeta{
		Name: key,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}
	if _, err := r.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	publicURL, err := url.JoinPath(r.publicBaseURL, key)
	if err != nil {
		return "", fmt.Errorf("build object url: %w", err)
	}
	return publicURL, nil
}

// Close drops the NATS connection.
func (r *JetStreamRelay) Close() {
	r.conn.Close()
}
