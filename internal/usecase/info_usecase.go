package usecase

import (
	"context"
	"errors"

	"github.com/jaennil/guide_helper/backend/rastertiles/internal/tiling"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/blocking"
	"github.com/jaennil/guide_helper/backend/rastertiles/pkg/logger"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
)

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PixelSize struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type GridInfo struct {
	Extent     tiling.Extent `json:"extent"`
	ReverseY   bool          `json:"reverse_y"`
	TileWidth  int           `json:"tile_width"`
	TileHeight int           `json:"tile_height"`
}

// SourceInfo describes a raster and the grid it is served on.
type SourceInfo struct {
	Source      string           `json:"source"`
	Extent      tiling.Extent    `json:"extent"`
	Size        Size             `json:"size"`
	PixelSize   PixelSize        `json:"pixel_size"`
	Footprint   *geojson.Feature `json:"footprint"`
	TileGrid    GridInfo         `json:"tile_grid"`
	WGS84Extent *tiling.Extent   `json:"wgs84_extent,omitempty"`
	EPSG        int              `json:"epsg,omitempty"`
}

// crsDataset is implemented by datasets that know their declared CRS.
type crsDataset interface {
	EPSG() int
}

type openedInfo struct {
	geom tiling.RasterGeometry
	epsg int
}

type InfoUseCase struct {
	opts        tiling.Options
	webMercator bool
	source      tiling.RasterSource
	pool        *blocking.Pool
	logger      logger.Logger
}

// NewInfoUseCase builds the info use case. webMercator reports that grid
// coordinates are EPSG:3857 metres, which enables the WGS84 extent.
func NewInfoUseCase(opts tiling.Options, webMercator bool, source tiling.RasterSource, pool *blocking.Pool, l logger.Logger) *InfoUseCase {
	return &InfoUseCase{
		opts:        opts,
		webMercator: webMercator,
		source:      source,
		pool:        pool,
		logger:      l,
	}
}

func (uc *InfoUseCase) GetInfo(ctx context.Context, source string) (*SourceInfo, error) {
	if err := tiling.ValidateSourceID(source); err != nil {
		return nil, err
	}

	opened, err := blocking.Run(ctx, uc.pool, func() (openedInfo, error) {
		ds, err := uc.source.Open(ctx, source)
		if err != nil {
			return openedInfo{}, err
		}
		defer ds.Close()

		out := openedInfo{geom: ds.Geometry()}
		if c, ok := ds.(crsDataset); ok {
			out.epsg = c.EPSG()
		}
		return out, nil
	})
	if err != nil {
		if errors.Is(err, tiling.ErrSourceNotFound) || errors.Is(err, tiling.ErrInvalidSource) {
			return nil, err
		}
		uc.logger.Error("failed to open raster", "source", source, "error", err)
		return nil, &CollaboratorError{Op: "open raster", Err: err}
	}

	geom := opened.geom
	extent := geom.Extent()

	footprint := geojson.NewFeature(extentPolygon(extent))
	footprint.Properties["source"] = source

	info := &SourceInfo{
		Source: source,
		Extent: extent,
		Size: Size{
			Width:  geom.Width,
			Height: geom.Height,
		},
		PixelSize: PixelSize{
			X: geom.PixelSizeX,
			Y: geom.PixelSizeY,
		},
		Footprint: footprint,
		TileGrid: GridInfo{
			Extent:     uc.opts.Grid.Extent(),
			ReverseY:   uc.opts.ReverseY,
			TileWidth:  uc.opts.TileWidth,
			TileHeight: uc.opts.TileHeight,
		},
		EPSG: opened.epsg,
	}

	if uc.webMercator {
		wgs := mercatorToWGS84(extent)
		info.WGS84Extent = &wgs
	}

	return info, nil
}

func extentPolygon(e tiling.Extent) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{e.XMin, e.YMin},
		{e.XMax, e.YMin},
		{e.XMax, e.YMax},
		{e.XMin, e.YMax},
		{e.XMin, e.YMin},
	}}
}

func mercatorToWGS84(e tiling.Extent) tiling.Extent {
	sw := project.Point(orb.Point{e.XMin, e.YMin}, project.Mercator.ToWGS84)
	ne := project.Point(orb.Point{e.XMax, e.YMax}, project.Mercator.ToWGS84)
	return tiling.Extent{
		XMin: sw.X(),
		YMin: sw.Y(),
		XMax: ne.X(),
		YMax: ne.Y(),
	}
}
