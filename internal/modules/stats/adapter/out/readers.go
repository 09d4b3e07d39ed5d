package out

import (
	"context"

	recorddomain "sleepsun/internal/modules/record/domain"
	sessiondto "sleepsun/internal/modules/session/dto"
	sessionin "sleepsun/internal/modules/session/port/in"
	statsout "sleepsun/internal/modules/stats/port/out"
	suntimesdto "sleepsun/internal/modules/suntimes/dto"
	suntimesin "sleepsun/internal/modules/suntimes/port/in"
)

// SessionReader reads through the session module's public use case.
type SessionReader struct {
	sessions sessionin.Usecase
}

func NewSessionReader(sessions sessionin.Usecase) statsout.SessionReader {
	return &SessionReader{sessions: sessions}
}

func (r *SessionReader) ListSessions(ctx context.Context, rangeStart, rangeEnd int64) ([]recorddomain.SleepSession, error) {
	items, err := r.sessions.List(ctx, sessiondto.ListInput{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Match:      string(recorddomain.MatchOverlapping),
	})
	if err != nil {
		return nil, err
	}
	out := make([]recorddomain.SleepSession, 0, len(items))
	for _, item := range items {
		out = append(out, fromSessionOutput(item))
	}
	return out, nil
}

func (r *SessionReader) GetSession(ctx context.Context, id string) (recorddomain.SleepSession, error) {
	item, err := r.sessions.Get(ctx, id)
	if err != nil {
		return recorddomain.SleepSession{}, err
	}
	return fromSessionOutput(item), nil
}

func fromSessionOutput(item sessiondto.SessionOutput) recorddomain.SleepSession {
	return recorddomain.SleepSession{
		ID:        item.ID,
		Start:     item.Start,
		End:       item.End,
		Lat:       item.Lat,
		Lon:       item.Lon,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// SunTimesReader reads cached sun times only; it never triggers a fetch.
type SunTimesReader struct {
	suntimes suntimesin.Usecase
}

func NewSunTimesReader(suntimes suntimesin.Usecase) statsout.SunTimesReader {
	return &SunTimesReader{suntimes: suntimes}
}

func (r *SunTimesReader) ListSunTimes(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]recorddomain.SunTimes, error) {
	items, err := r.suntimes.List(ctx, suntimesdto.ListInput{RangeStart: dateStart, RangeEnd: dateEnd, Lat: &lat, Lon: &lon})
	if err != nil {
		return nil, err
	}
	out := make([]recorddomain.SunTimes, 0, len(items))
	for _, item := range items {
		out = append(out, recorddomain.SunTimes{
			Date:      item.Date,
			Lat:       item.Lat,
			Lon:       item.Lon,
			Sunrise:   item.Sunrise,
			Sunset:    item.Sunset,
			Daylength: item.Daylength,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return out, nil
}
