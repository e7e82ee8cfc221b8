package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sheikhmt/taha-iss-tracker/internal/geo"
	"github.com/sheikhmt/taha-iss-tracker/internal/oem"
	"github.com/sheikhmt/taha-iss-tracker/internal/passes"
	"github.com/sheikhmt/taha-iss-tracker/internal/track"
	"github.com/sheikhmt/taha-iss-tracker/internal/transform"
)

// stateVectorJSON is the wire shape of one state vector.
type stateVectorJSON struct {
	Epoch       string     `json:"epoch"`
	Time        time.Time  `json:"time"`
	PositionKm  [3]float64 `json:"position_km"`
	VelocityKmS [3]float64 `json:"velocity_km_s"`
}

func toStateVectorJSON(sv oem.StateVector) stateVectorJSON {
	return stateVectorJSON{
		Epoch:       sv.Epoch,
		Time:        sv.Time,
		PositionKm:  [3]float64{sv.Position.X, sv.Position.Y, sv.Position.Z},
		VelocityKmS: [3]float64{sv.Velocity.X, sv.Velocity.Y, sv.Velocity.Z},
	}
}

type speedResponse struct {
	Epoch    string  `json:"epoch"`
	SpeedKmS float64 `json:"speed_km_s"`
}

type locationResponse struct {
	Epoch string `json:"epoch"`
	geo.Location
}

type sightingResponse struct {
	Epoch string `json:"epoch"`
	geo.Sighting
}

type nowResponse struct {
	Epoch    string    `json:"epoch"`
	Time     time.Time `json:"time"`
	SpeedKmS float64   `json:"speed_km_s"`
	geo.Location
	ResolvedAt time.Time `json:"resolved_at"`
}

type trackResponse struct {
	BuiltAt time.Time     `json:"built_at"`
	Total   int           `json:"total"`
	Points  []track.Point `json:"points"`
}

type observerJSON struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeKm float64 `json:"altitude_km"`
}

type passesResponse struct {
	Observer observerJSON  `json:"observer"`
	Total    int           `json:"total"`
	Passes   []passes.Pass `json:"passes"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps the query and conversion error taxonomy to HTTP
// status codes.
func statusForError(err error) int {
	var invalidQuery *oem.InvalidQueryError
	switch {
	case errors.As(err, &invalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, oem.ErrEpochNotFound), errors.Is(err, oem.ErrEmptyDataset):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requireDataset fetches the current dataset or answers 503.
func requireDataset(w http.ResponseWriter, store *oem.Store) *oem.Dataset {
	ds := store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no dataset loaded")
		return nil
	}
	return ds
}

// pageParams parses limit and offset, defaulting to the full window of
// n records. Rejects non-integer values; range checks belong to
// oem.PageBounds.
func pageParams(w http.ResponseWriter, r *http.Request, n int) (limit, offset int, ok bool) {
	limit = n
	if v := r.URL.Query().Get("limit"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return 0, 0, false
		}
		limit = i
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "offset must be an integer")
			return 0, 0, false
		}
		offset = i
	}
	return limit, offset, true
}

// observerParams parses the lat, lon and optional alt_km query
// parameters into a ground observer.
func observerParams(w http.ResponseWriter, r *http.Request) (transform.Observer, observerJSON, bool) {
	q := r.URL.Query()
	if !q.Has("lat") || !q.Has("lon") {
		writeError(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return transform.Observer{}, observerJSON{}, false
	}

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "lat must be a number within [-90, 90]")
		return transform.Observer{}, observerJSON{}, false
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, "lon must be a number within [-180, 180]")
		return transform.Observer{}, observerJSON{}, false
	}
	altKm := 0.0
	if v := q.Get("alt_km"); v != "" {
		altKm, err = strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "alt_km must be a number")
			return transform.Observer{}, observerJSON{}, false
		}
	}

	coords := observerJSON{Latitude: lat, Longitude: lon, AltitudeKm: altKm}
	return transform.NewObserver(lat, lon, altKm), coords, true
}

func epochsHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		limit, offset, ok := pageParams(w, r, ds.Len())
		if !ok {
			return
		}

		page, err := ds.Page(limit, offset)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		out := make([]stateVectorJSON, len(page))
		for i, sv := range page {
			out[i] = toStateVectorJSON(sv)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func epochHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		sv, err := ds.FindEpoch(r.PathValue("epoch"))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toStateVectorJSON(*sv))
	}
}

func speedHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		sv, err := ds.FindEpoch(r.PathValue("epoch"))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, speedResponse{Epoch: sv.Epoch, SpeedKmS: sv.Speed()})
	}
}

func locationHandler(logger *slog.Logger, store *oem.Store, conv *geo.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		sv, err := ds.FindEpoch(r.PathValue("epoch"))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		loc, err := conv.Locate(sv.Position, sv.Time)
		if err != nil {
			logger.Warn("location conversion failed", "epoch", sv.Epoch, "error", err)
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, locationResponse{Epoch: sv.Epoch, Location: loc})
	}
}

func sightingHandler(logger *slog.Logger, store *oem.Store, conv *geo.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		obs, _, ok := observerParams(w, r)
		if !ok {
			return
		}

		sv, err := ds.FindEpoch(r.PathValue("epoch"))
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		sgt, err := conv.Sight(sv.Position, sv.Velocity, sv.Time, obs)
		if err != nil {
			logger.Warn("sighting conversion failed", "epoch", sv.Epoch, "error", err)
			writeError(w, statusForError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sightingResponse{Epoch: sv.Epoch, Sighting: sgt})
	}
}

func nowHandler(logger *slog.Logger, store *oem.Store, conv *geo.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		now := time.Now().UTC()
		sv, err := ds.Nearest(now)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		loc, err := conv.Locate(sv.Position, sv.Time)
		if err != nil {
			logger.Warn("location conversion failed", "epoch", sv.Epoch, "error", err)
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, nowResponse{
			Epoch:      sv.Epoch,
			Time:       sv.Time,
			SpeedKmS:   sv.Speed(),
			Location:   loc,
			ResolvedAt: now,
		})
	}
}

func commentHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		comments := ds.Comment
		if comments == nil {
			comments = []string{}
		}
		writeJSON(w, http.StatusOK, comments)
	}
}

func headerHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}
		writeJSON(w, http.StatusOK, ds.Header)
	}
}

func metadataHandler(store *oem.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}
		writeJSON(w, http.StatusOK, ds.Metadata)
	}
}

func trackHandler(logger *slog.Logger, store *oem.Store, tracks *track.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		trk, err := tracks.Track(r.Context(), ds)
		if err != nil {
			if statusForError(err) >= http.StatusInternalServerError {
				logger.Error("ground track build failed", "error", err)
			}
			writeError(w, statusForError(err), err.Error())
			return
		}

		limit, offset, ok := pageParams(w, r, trk.Len())
		if !ok {
			return
		}

		lo, hi, err := oem.PageBounds(limit, offset, trk.Len())
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, trackResponse{
			BuiltAt: trk.BuiltAt,
			Total:   trk.Len(),
			Points:  trk.Points[lo:hi],
		})
	}
}

// defaultMinElevationDeg is the pass threshold when min_elevation is
// absent. Below ten degrees the spacecraft sits in ground clutter for
// most observers.
const defaultMinElevationDeg = 10.0

func passesHandler(logger *slog.Logger, store *oem.Store, conv *geo.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := requireDataset(w, store)
		if ds == nil {
			return
		}

		obs, coords, ok := observerParams(w, r)
		if !ok {
			return
		}

		minElev := defaultMinElevationDeg
		if v := r.URL.Query().Get("min_elevation"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f >= 90 {
				writeError(w, http.StatusBadRequest, "min_elevation must be a number within [0, 90)")
				return
			}
			minElev = f
		}
		maxPasses := 0
		if v := r.URL.Query().Get("max_passes"); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil || i < 1 {
				writeError(w, http.StatusBadRequest, "max_passes must be a positive integer")
				return
			}
			maxPasses = i
		}

		found, err := passes.Predict(r.Context(), ds, conv, passes.Request{
			Observer:        obs,
			MinElevationDeg: minElev,
			MaxPasses:       maxPasses,
		})
		if err != nil {
			if statusForError(err) >= http.StatusInternalServerError {
				logger.Error("pass search failed", "error", err)
			}
			writeError(w, statusForError(err), err.Error())
			return
		}
		if found == nil {
			found = []passes.Pass{}
		}

		writeJSON(w, http.StatusOK, passesResponse{
			Observer: coords,
			Total:    len(found),
			Passes:   found,
		})
	}
}
