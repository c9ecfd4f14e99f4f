// Package firestoretest starts a Firestore emulator for repository tests.
package firestoretest

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tcfirestore "github.com/testcontainers/testcontainers-go/modules/gcloud/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const emulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:513.0.0-emulators"

var (
	once    sync.Once
	uri     string
	startUp error
)

// emulatorCreds sends the owner token the emulator expects in place of real credentials.
type emulatorCreds struct{}

func (emulatorCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer owner"}, nil
}

func (emulatorCreds) RequireTransportSecurity() bool { return false }

// NewClient returns a client on a project no other test uses, so tests see
// only their own documents. It reuses FIRESTORE_EMULATOR_HOST when set and
// otherwise starts one emulator container per test binary, left for the
// testcontainers reaper to remove.
func NewClient(t *testing.T) *firestore.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Firestore emulator test in short mode")
	}
	ctx := context.Background()
	project := "demo-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]

	if os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		client, err := firestore.NewClient(ctx, project)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		return client
	}

	once.Do(func() {
		ctr, err := tcfirestore.Run(ctx, emulatorImage, tcfirestore.WithProjectID("demo-grocer"))
		if err != nil {
			startUp = err
			return
		}
		uri = ctr.URI()
	})
	require.NoError(t, startUp, "starting firestore emulator")

	conn, err := grpc.NewClient(uri,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(emulatorCreds{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := firestore.NewClient(ctx, project, option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
