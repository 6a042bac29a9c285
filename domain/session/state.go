// Package session defines the versioned container that carries a user's
// dataset, classified schema, derived lookups, cached projections and current
// UI selections across requests. The whole container round-trips through JSON
// byte-for-byte so it can be persisted in the key-value store, exported, and
// restored later.
package session

import (
	"encoding/json"
	"fmt"

	"geolens/domain/core"
	"geolens/domain/schema"
	"geolens/domain/table"
)

// Version is the current session wire version.
const Version = 1

// ColsKeyPlot mirrors the analyte/meta column split of the classified schema.
type ColsKeyPlot struct {
	Meta          []string `json:"meta"`
	NumericAll    []string `json:"numeric_all"`
	NumericSimple []string `json:"numeric_simple"`
	NumericCLR    []string `json:"numeric_clr"`
}

// ColsKeyMeta mirrors the key metadata columns of the classified schema.
type ColsKeyMeta struct {
	LocID      string        `json:"loc_id"`
	Date       string        `json:"date,omitempty"`
	PlotGroups []string      `json:"plot_groups"`
	LongLat    [2]string     `json:"long_lat"`
	Format     schema.Format `json:"format"`
}

// MetaData is the immutable per-upload metadata block: schema column keys,
// derived lookups and the coordinate table. A new upload fully replaces it.
type MetaData struct {
	ColsKeyPlot       ColsKeyPlot                  `json:"cols_key_plot"`
	ColsKeyMeta       ColsKeyMeta                  `json:"cols_key_meta"`
	DictMarkerMap     map[string]string            `json:"dict_marker_map"`
	DictGenericColors map[string]map[string]string `json:"dict_generic_colors"`
	LocIDAll          []string                     `json:"loc_id_all"`
	ColsNumericAll    []string                     `json:"cols_numeric_all"`
	DFCoordinate      json.RawMessage              `json:"df_coordinate"`
}

// Schema reassembles the typed schema from the stored column keys.
func (m MetaData) Schema() schema.Schema {
	return schema.Schema{
		Format:            m.ColsKeyMeta.Format,
		LocIDCol:          m.ColsKeyMeta.LocID,
		DateCol:           m.ColsKeyMeta.Date,
		PlotGroupCols:     m.ColsKeyMeta.PlotGroups,
		LongLatCols:       m.ColsKeyMeta.LongLat,
		MetaCols:          m.ColsKeyPlot.Meta,
		NumericAllCols:    m.ColsKeyPlot.NumericAll,
		NumericSimpleCols: m.ColsKeyPlot.NumericSimple,
		NumericCLRCols:    m.ColsKeyPlot.NumericCLR,
	}
}

// NewMetaData builds the metadata block from a classified schema and the
// derived lookups.
func NewMetaData(s schema.Schema, markerMap map[string]string, colorMaps map[string]map[string]string, locIDAll []string, coordinate table.Table) (MetaData, error) {
	coord, err := table.Encode(coordinate, "")
	if err != nil {
		return MetaData{}, fmt.Errorf("encode coordinate table: %w", err)
	}
	return MetaData{
		ColsKeyPlot: ColsKeyPlot{
			Meta:          s.MetaCols,
			NumericAll:    s.NumericAllCols,
			NumericSimple: s.NumericSimpleCols,
			NumericCLR:    s.NumericCLRCols,
		},
		ColsKeyMeta: ColsKeyMeta{
			LocID:      s.LocIDCol,
			Date:       s.DateCol,
			PlotGroups: s.PlotGroupCols,
			LongLat:    s.LongLatCols,
			Format:     s.Format,
		},
		DictMarkerMap:     markerMap,
		DictGenericColors: colorMaps,
		LocIDAll:          locIDAll,
		ColsNumericAll:    s.NumericAllCols,
		DFCoordinate:      coord,
	}, nil
}

// DataHash wraps the content hash in its own wire object.
type DataHash struct {
	DataHash core.ContentHash `json:"data_hash"`
}

// WorkingData is the output of one dimension-reduction run. Nil on a fresh
// upload; replaced whole on every successful apply.
type WorkingData struct {
	DFPlotPCA  json.RawMessage `json:"df_plot_pca"`
	DFPlotPMAP json.RawMessage `json:"df_plot_pmap"`
	LdgDF      json.RawMessage `json:"ldg_df"`
	ExplVar    [2]float64      `json:"expl_var"`
}

// PlottingData is the current UI selection state: the dropdown options and
// values plus the neighbor count. It always describes the same query as
// WorkingData; the two are swapped together.
type PlottingData struct {
	MapGroupOptions   []string `json:"map_group_dropdown_options"`
	MapGroupValue     string   `json:"map_group_dropdown_value"`
	PlotGroup1Options []string `json:"plot_group_dropdown_1_options"`
	PlotGroup1Value   string   `json:"plot_group_dropdown_1_value"`
	PlotGroup2Options []string `json:"plot_group_dropdown_2_options"`
	PlotGroup2Value   string   `json:"plot_group_dropdown_2_value"`
	FeatureOptions    []string `json:"feature_selection_dropdown_options"`
	FeatureValue      []string `json:"feature_selection_dropdown_value"`
	LocIDOptions      []string `json:"loc_id_dropdown_options"`
	LocIDValue        []string `json:"loc_id_dropdown_value"`
	PMAPNeighbors     int      `json:"pmap_neighbors"`
}

// Selection is one apply request: what the user picked before hitting apply.
type Selection struct {
	Features   []string `json:"feature_selection"`
	LocIDs     []string `json:"loc_id_selection"`
	MapGroup   string   `json:"map_group"`
	PlotGroup1 string   `json:"plot_group_1"`
	PlotGroup2 string   `json:"plot_group_2"`
	NNeighbors int      `json:"n_neighbors"`
}

// State is the top-level persisted session object.
type State struct {
	DFMaster     json.RawMessage `json:"df_master"`
	MetaData     MetaData        `json:"meta_data"`
	DataHash     DataHash        `json:"data_hash"`
	WorkingData  *WorkingData    `json:"working_data"`
	PlottingData PlottingData    `json:"plotting_data"`
	Version      int             `json:"version"`
}

// MasterTable decodes the stored master dataset.
func (s State) MasterTable() (table.Table, error) {
	return table.Decode(s.DFMaster, s.MetaData.ColsKeyMeta.Date)
}

// CacheKey identifies the dimension-reduction run a selection describes
// against this session's dataset.
func (s State) CacheKey(sel Selection) string {
	return core.ProjectionCacheKey(sel.Features, sel.LocIDs, sel.NNeighbors, s.DataHash.DataHash)
}

// ApplyWorkingData returns a new state with working data and plotting
// selections replaced together, so the two never describe different queries.
// Dropdown options are carried over; only values change.
func (s State) ApplyWorkingData(wd WorkingData, sel Selection) State {
	out := s
	out.WorkingData = &wd
	pd := s.PlottingData
	pd.FeatureValue = sel.Features
	pd.LocIDValue = sel.LocIDs
	pd.MapGroupValue = sel.MapGroup
	pd.PlotGroup1Value = sel.PlotGroup1
	pd.PlotGroup2Value = sel.PlotGroup2
	pd.PMAPNeighbors = sel.NNeighbors
	out.PlottingData = pd
	return out
}

// Encode serializes the session for persistence or export.
func (s State) Encode() ([]byte, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	return json.Marshal(s)
}

// Decode restores a persisted session, rejecting unknown wire versions.
func Decode(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	if s.Version != Version {
		return State{}, fmt.Errorf("unsupported session version %d", s.Version)
	}
	return s, nil
}

// PackageWorkingData encodes orchestrator output into the serializable
// working-data sub-object. Pure function; inputs are not modified.
func PackageWorkingData(dfPlotPCA, dfPlotPMAP, loadingMatrix table.Table, explVar [2]float64, dateCol string) (WorkingData, error) {
	pca, err := table.Encode(dfPlotPCA, dateCol)
	if err != nil {
		return WorkingData{}, fmt.Errorf("encode pca table: %w", err)
	}
	pmap, err := table.Encode(dfPlotPMAP, dateCol)
	if err != nil {
		return WorkingData{}, fmt.Errorf("encode pmap table: %w", err)
	}
	ldg, err := table.Encode(loadingMatrix, "")
	if err != nil {
		return WorkingData{}, fmt.Errorf("encode loading matrix: %w", err)
	}
	return WorkingData{
		DFPlotPCA:  pca,
		DFPlotPMAP: pmap,
		LdgDF:      ldg,
		ExplVar:    explVar,
	}, nil
}
