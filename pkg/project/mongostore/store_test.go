package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/collage/pkg/project"
)

// TestStoreRoundTrip needs a MongoDB server; set COLLAGE_TEST_MONGO_URI to run it.
func TestStoreRoundTrip(t *testing.T) {
	uri := os.Getenv("COLLAGE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("COLLAGE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := Connect(ctx, uri, "collage_test", "projects_"+time.Now().Format("150405.000"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.coll.Drop(ctx)
		_ = s.Close(ctx)
	}()

	in := &project.Document{Projects: []project.Project{
		{ID: "zeta", Title: "Zeta", Category: project.CategoryVideo, Images: []string{"/z.png"}},
		{ID: "alpha", Title: "Alpha", Category: project.CategoryPhoto, Images: []string{}},
	}}
	if err := s.Replace(ctx, in); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Projects) != 2 || out.Projects[0].ID != "zeta" || out.Projects[1].ID != "alpha" {
		t.Errorf("Load = %+v, want document order preserved", out.Projects)
	}
}

func TestReplaceRejectsInvalidDocument(t *testing.T) {
	s := New(nil)
	doc := &project.Document{Projects: []project.Project{
		{ID: "a", Title: "A", Category: project.CategoryPhoto},
		{ID: "a", Title: "B", Category: project.CategoryPhoto},
	}}
	if err := s.Replace(context.Background(), doc); err == nil {
		t.Error("duplicate ids should be rejected before touching the collection")
	}
}
