// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/iam"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iamcredentials/v1"
)

// DefaultSignedURLTTL is how long an archive download link stays valid.
const DefaultSignedURLTTL = 24 * time.Hour

// RunArchiver uploads a finished run's final video and manifest to a GCS
// bucket and hands out time-limited download links. Links are signed through
// the IAM credentials API rather than a local private key, so the server
// only needs the signer's service account email and the
// iam.serviceAccountTokenCreator role.
type RunArchiver struct {
	bucket      *storage.BucketHandle
	bucketIAM   *iam.Handle
	bucketName  string
	signerEmail string
	creds       *iamcredentials.Service
}

// NewRunArchiver builds an archiver for the given bucket and signer.
func NewRunArchiver(ctx context.Context, client *storage.Client, bucketName, signerEmail string) (*RunArchiver, error) {
	creds, err := iamcredentials.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create iam credentials service: %w", err)
	}
	bucket := client.Bucket(bucketName)
	return &RunArchiver{
		bucket:      bucket,
		bucketIAM:   bucket.IAM(),
		bucketName:  bucketName,
		signerEmail: signerEmail,
		creds:       creds,
	}, nil
}

// CanArchive is a startup preflight: it verifies the ambient identity can
// create objects in the archive bucket, so a misconfigured deployment fails
// loudly instead of at the end of the first run.
func (a *RunArchiver) CanArchive(ctx context.Context) (bool, error) {
	perms, err := a.bucketIAM.TestPermissions(ctx, []string{"storage.objects.create"})
	if err != nil {
		return false, fmt.Errorf("failed to test bucket permissions: %w", err)
	}
	return len(perms) == 1, nil
}

// Archive uploads the given files under {runName}/ in the archive bucket and
// returns the object names keyed the same way as the input.
func (a *RunArchiver) Archive(ctx context.Context, runName string, files map[string]string) (map[string]string, error) {
	objects := make(map[string]string, len(files))
	for label, localPath := range files {
		object := fmt.Sprintf("%s/%s", runName, filepath.Base(localPath))
		if err := a.upload(ctx, localPath, object); err != nil {
			return nil, fmt.Errorf("failed to archive %s: %w", label, err)
		}
		objects[label] = object
	}
	return objects, nil
}

func (a *RunArchiver) upload(ctx context.Context, localPath, object string) error {
	in, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer in.Close()

	w := a.bucket.Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// SignedDownloadURL returns a V4 signed GET link for an archived object.
func (a *RunArchiver) SignedDownloadURL(object string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return a.bucket.SignedURL(object, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(ttl),
		GoogleAccessID: a.signerEmail,
		SignBytes:      a.signBytes,
	})
}

// signBytes delegates the URL signature to the IAM credentials API on behalf
// of the configured signer service account.
func (a *RunArchiver) signBytes(payload []byte) ([]byte, error) {
	name := fmt.Sprintf("projects/-/serviceAccounts/%s", a.signerEmail)
	resp, err := a.creds.Projects.ServiceAccounts.SignBlob(name, &iamcredentials.SignBlobRequest{
		Payload: base64.StdEncoding.EncodeToString(payload),
	}).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to sign blob as %s: %w", a.signerEmail, err)
	}
	return base64.StdEncoding.DecodeString(resp.SignedBlob)
}
