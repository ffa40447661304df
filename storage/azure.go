package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// AzureStorage implements Storage interface for Azure Blob Storage
type AzureStorage struct {
	client    *azblob.Client
	container string
	expiry    time.Duration
}

// NewAzureStorage creates a client from a connection string. The container
// is created on first use by EnsureContainer.
func NewAzureStorage(cfg StorageConfig) (*AzureStorage, error) {
	opts := &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry:     policy.RetryOptions{MaxRetries: 3},
			Telemetry: policy.TelemetryOptions{ApplicationID: "floorchat"},
		},
	}

	client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure storage client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}

	return &AzureStorage{
		client:    client,
		container: cfg.AzureContainer,
		expiry:    expiry,
	}, nil
}

// EnsureContainer creates the container if it does not exist
func (a *AzureStorage) EnsureContainer(ctx context.Context) error {
	_, err := a.client.CreateContainer(ctx, a.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("failed to create container %s: %w", a.container, err)
	}
	return nil
}

// Upload streams data to a blob
func (a *AzureStorage) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}

	if _, err := a.client.UploadStream(ctx, a.container, key, data, opts); err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", key, err)
	}

	return nil
}

// Download returns a stream for the blob at key
func (a *AzureStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download blob %s: %w", key, err)
	}

	return resp.Body, nil
}

// Delete removes the blob at key. Missing blobs are not an error.
func (a *AzureStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := a.client.DeleteBlob(ctx, a.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}

	return nil
}

// URL returns a read-only SAS URL. The connection string must carry an
// account key.
func (a *AzureStorage) URL(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	blobClient := a.client.
		ServiceClient().
		NewContainerClient(a.container).
		NewBlobClient(key)

	u, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(a.expiry), nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign blob URL %s: %w", key, err)
	}

	return u, nil
}
