package oembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

// LoadCatalogue reads the provider catalogue from a local file or, for
// `gs://bucket/object` paths, from Google Cloud Storage. The catalogue is a
// static versioned artifact loaded once at startup; failure here is fatal to
// the process, because serving previews with an empty registry would
// silently disable provider resolution.
func LoadCatalogue(ctx context.Context, path string) ([]Provider, error) {
	if path == "" {
		return nil, fmt.Errorf("catalogue path is required")
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(path, "gs://") {
		data, err = readGCSObject(ctx, path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalogue %q: %w", path, err)
	}

	var providers []Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("parse catalogue %q: %w", path, err)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("catalogue %q contains no providers", path)
	}
	return providers, nil
}

func readGCSObject(ctx context.Context, path string) ([]byte, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(path, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return nil, fmt.Errorf("malformed gs:// path")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close() //nolint:errcheck // read-only client

	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer reader.Close() //nolint:errcheck // best-effort close

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}
