package projects

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffObjectId,ProjectID,ProjectComponentID,Region,Province,Municipality,Latitude,Longitude,ABC,ContractCost,Contractor,ProjectDescription,TypeofWork,InfraYear,StartDate,CompletionDateActual\n" +
	`1,P00941153LZ,P00941153LZ_25AG0078,Region I,PANGASINAN,CITY OF ALAMINOS,16.09684657,119.96915518,"4,950,000","4,850,385.71", ged construction ,Rehabilitation of Flood Mitigation Structure,Rehabilitation / Major Repair of Structure,2025,2025-02-03,1735689600000` + "\n" +
	`2,P2,P2_A,Region I,PANGASINAN,DAGUPAN,,120.3,100,90,X,Missing latitude,Other,2024,,` + "\n" +
	`3,P3,P3_A,NCR,METRO MANILA,QUEZON CITY,14.676,121.0437,nan,not-a-number,Sunwest,Drainage,Construction of Drainage,2024.0,2024-01-15T08:00:00,` + "\n"

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2, "row without latitude is dropped")

	first := records[0]
	assert.Equal(t, 1, first.ObjectID)
	assert.Equal(t, "P00941153LZ_25AG0078", first.ProjectComponentID)
	assert.Equal(t, 4950000.0, first.ABC)
	assert.Equal(t, 4850385.71, first.ContractCost)
	assert.Equal(t, "GED CONSTRUCTION", first.Contractor)
	assert.Equal(t, 2025, first.InfraYear)
	require.NotNil(t, first.StartDate)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), *first.StartDate)
	require.NotNil(t, first.CompletionDateActual)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *first.CompletionDateActual)

	second := records[1]
	assert.Zero(t, second.ABC)
	assert.Zero(t, second.ContractCost)
	assert.Equal(t, "SUNWEST", second.Contractor)
	assert.Equal(t, 2024, second.InfraYear)
	assert.Nil(t, second.CompletionDateActual)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = ReadCSV(strings.NewReader("ProjectID,Latitude\nP1,10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Longitude"`)

	_, err = ReadCSV(strings.NewReader("Latitude,Longitude\n,\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	records, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
