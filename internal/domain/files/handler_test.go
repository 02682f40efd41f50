package files

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortItemsFoldersAlwaysFirst(t *testing.T) {
	recs := []FileRecord{
		{DisplayName: "zz.txt", SizeBytes: 1},
		{DisplayName: "aa", IsFolder: true},
		{DisplayName: "mm.txt", SizeBytes: 3},
	}

	sortItems(recs, "size", "desc")

	assert.True(t, recs[0].IsFolder)
	assert.Equal(t, "mm.txt", recs[1].DisplayName)
	assert.Equal(t, "zz.txt", recs[2].DisplayName)
}

func TestSortItemsByDate(t *testing.T) {
	old := time.Now().Add(-time.Hour)
	recent := time.Now()
	recs := []FileRecord{
		{DisplayName: "new.txt", ModifiedAt: recent},
		{DisplayName: "old.txt", ModifiedAt: old},
	}

	sortItems(recs, "date", "asc")
	assert.Equal(t, "old.txt", recs[0].DisplayName)

	sortItems(recs, "date", "desc")
	assert.Equal(t, "new.txt", recs[0].DisplayName)
}

func TestListEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	ctx := context.Background()

	folder, err := svc.CreateRecord(ctx, "Photos", 0, nil, true)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, makeFileHeader(t, "inside.txt", []byte("i")), &folder.ID)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, makeFileHeader(t, "root.txt", []byte("r")), nil)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Items []struct {
				DisplayName string `json:"original_filename"`
				IsFolder    bool   `json:"is_folder"`
				ItemCount   *int64 `json:"item_count"`
			} `json:"items"`
			CurrentFolder struct {
				Name string `json:"name"`
			} `json:"current_folder"`
			Breadcrumb []Crumb `json:"breadcrumb"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.Equal(t, "My Files", body.Data.CurrentFolder.Name)
	require.Len(t, body.Data.Items, 2)

	// The folder leads and carries its live child count.
	assert.True(t, body.Data.Items[0].IsFolder)
	assert.Equal(t, "Photos", body.Data.Items[0].DisplayName)
	require.NotNil(t, body.Data.Items[0].ItemCount)
	assert.Equal(t, int64(1), *body.Data.Items[0].ItemCount)

	require.Len(t, body.Data.Breadcrumb, 1)
	assert.Equal(t, "Home", body.Data.Breadcrumb[0].Name)
}

func TestListEndpointInsideFolder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	ctx := context.Background()

	folder, err := svc.CreateRecord(ctx, "Photos", 0, nil, true)
	require.NoError(t, err)
	_, err = svc.Upload(ctx, makeFileHeader(t, "inside.txt", []byte("i")), &folder.ID)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/files?folder_id="+folder.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Items []struct {
				DisplayName string `json:"original_filename"`
			} `json:"items"`
			CurrentFolder struct {
				Name string `json:"name"`
			} `json:"current_folder"`
			Breadcrumb []Crumb `json:"breadcrumb"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "Photos", body.Data.CurrentFolder.Name)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "inside.txt", body.Data.Items[0].DisplayName)

	require.Len(t, body.Data.Breadcrumb, 2)
	assert.Equal(t, "Photos", body.Data.Breadcrumb[1].Name)
}
