package geo

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ringsaturn/tzf"
)

// ZoneClockService は座標から現地の壁時計時刻を解決するインターフェース。
type ZoneClockService interface {
	// LocalClock は座標の現地時刻を24時間表記・ゼロ埋めの HH:MM で返す。
	LocalClock(lat, lon float64) string
}

// ZoneResolver は埋め込みタイムゾーン境界データ（tzf）で座標をIANAゾーン名に
// 解決し、現地時刻を整形する。ネットワークアクセスは発生しない。
type ZoneResolver struct {
	finder tzf.F
	logger *slog.Logger
	now    func() time.Time
}

// NewZoneResolver はZoneResolverの新しいインスタンスを生成する。
// 埋め込みデータのロードに失敗した場合はエラーを返す（起動時のみ発生しうる）。
func NewZoneResolver(logger *slog.Logger) (*ZoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone data: %w", err)
	}
	return &ZoneResolver{
		finder: finder,
		logger: logger,
		now:    time.Now,
	}, nil
}

// LocalClock は座標の現地時刻を HH:MM で返す。
// ゾーンが解決できない座標（外洋など）やゾーンDBに存在しない名前は
// UTCにフォールバックする。応答自体は必ず生成される。
func (z *ZoneResolver) LocalClock(lat, lon float64) string {
	loc := time.UTC
	name := z.finder.GetTimezoneName(lon, lat)
	if name == "" {
		z.logger.Warn("座標からタイムゾーンを解決できないためUTCを使用します",
			slog.Float64("lat", lat),
			slog.Float64("lon", lon),
		)
	} else if resolved, err := time.LoadLocation(name); err != nil {
		z.logger.Warn("タイムゾーンのロードに失敗したためUTCを使用します",
			slog.String("zone", name),
			slog.String("error", err.Error()),
		)
	} else {
		loc = resolved
	}

	return z.now().In(loc).Format("15:04")
}
