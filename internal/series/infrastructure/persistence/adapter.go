package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow/pattern"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	sharedDomain "github.com/motioneffector/autoplanner/internal/shared/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/database"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// Adapter implements domain.Adapter against either SQLite or Postgres
// through the shared database.Connection abstraction, grounded on
// internal/productivity's single-repository-per-driver-abstraction
// idiom (see postgres_task_repo.go) rather than the older sqlc-generated
// querier pattern (internal/habits, internal/scheduling): the sqlc
// output those use (db/generated/sqlite) is absent from the retrieval
// pack, so it is not reproduced here (see DESIGN.md).
type Adapter struct {
	conn database.Connection
}

// NewAdapter wraps a database.Connection, ensuring the schema exists.
func NewAdapter(ctx context.Context, conn database.Connection) (*Adapter, error) {
	if err := EnsureSchema(ctx, conn); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Adapter{conn: conn}, nil
}

func (a *Adapter) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, a.conn)
}

// ph returns the n-th bind placeholder for the adapter's driver.
func (a *Adapter) ph(n int) string {
	if a.conn.Driver() == database.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// phs builds a comma-joined placeholder list starting at offset+1.
func (a *Adapter) phs(offset, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = a.ph(offset + i + 1)
	}
	return strings.Join(parts, ", ")
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int64) bool { return i != 0 }

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timePtrToNullString(t *timegrid.LocalTime) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.String(), Valid: true}
}

func datePtrToNullString(d *timegrid.LocalDate) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// WithinTransaction runs fn inside a transaction, committing on success
// and rolling back on error or panic (spec §7: "mutations are
// transactional at the adapter boundary").
func (a *Adapter) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if database.TxFromContext(ctx) != nil {
		return fn(ctx) // already inside a transaction (nested call)
	}

	tx, err := a.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	txCtx := database.WithTx(ctx, tx, true)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

// --- Series ---

func (a *Adapter) CreateSeries(ctx context.Context, s *domain.Series) error {
	return a.WithinTransaction(ctx, func(ctx context.Context) error {
		ex := a.exec(ctx)
		_, err := ex.Exec(ctx, fmt.Sprintf(
			`INSERT INTO series (id, user_id, name, start_date, end_date, adaptive_duration, archived, locked, version, created_at, updated_at)
			 VALUES (%s)`, a.phs(0, 11)),
			s.ID().String(), s.UserID().String(), s.Name(), s.StartDate().String(),
			datePtrToNullString(s.EndDate()), boolToInt(s.HasAdaptiveDuration()), boolToInt(s.IsArchived()),
			boolToInt(s.IsLocked()), s.Version(), s.CreatedAt().Format(time.RFC3339), s.UpdatedAt().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateKey, err)
		}
		if err := a.replacePatterns(ctx, s); err != nil {
			return err
		}
		return a.replaceTags(ctx, s.ID(), s.Tags())
	})
}

func (a *Adapter) UpdateSeries(ctx context.Context, s *domain.Series) error {
	return a.WithinTransaction(ctx, func(ctx context.Context) error {
		ex := a.exec(ctx)
		_, err := ex.Exec(ctx, fmt.Sprintf(
			`UPDATE series SET name=%s, start_date=%s, end_date=%s, adaptive_duration=%s, archived=%s, locked=%s,
			 version=%s, updated_at=%s WHERE id=%s`,
			a.ph(1), a.ph(2), a.ph(3), a.ph(4), a.ph(5), a.ph(6), a.ph(7), a.ph(8), a.ph(9)),
			s.Name(), s.StartDate().String(), datePtrToNullString(s.EndDate()), boolToInt(s.HasAdaptiveDuration()),
			boolToInt(s.IsArchived()), boolToInt(s.IsLocked()), s.Version(), s.UpdatedAt().Format(time.RFC3339), s.ID().String())
		if err != nil {
			return err
		}
		if err := a.replacePatterns(ctx, s); err != nil {
			return err
		}
		return a.replaceTags(ctx, s.ID(), s.Tags())
	})
}

func (a *Adapter) replacePatterns(ctx context.Context, s *domain.Series) error {
	ex := a.exec(ctx)
	if _, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM patterns WHERE series_id = %s`, a.ph(1)), s.ID().String()); err != nil {
		return err
	}
	for i, p := range s.Patterns() {
		if err := a.insertPattern(ctx, s.ID(), p, i); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) insertPattern(ctx context.Context, seriesID uuid.UUID, p *domain.Pattern, order int) error {
	ex := a.exec(ctx)

	var daysOfWeek sql.NullString
	var dayOfMonth sql.NullInt64
	core := p.ToCore()
	if len(core.DaysOfWeek) > 0 {
		b, _ := json.Marshal(core.DaysOfWeek)
		daysOfWeek = sql.NullString{String: string(b), Valid: true}
	}
	if core.Kind == pattern.KindMonthly {
		dayOfMonth = sql.NullInt64{Int64: int64(monthlyDayOfMonth(p)), Valid: true}
	}

	var windowStart, windowEnd sql.NullString
	if core.TimeWindow != nil {
		windowStart = sql.NullString{String: core.TimeWindow.Start.String(), Valid: true}
		windowEnd = sql.NullString{String: core.TimeWindow.End.String(), Valid: true}
	}

	var conditionJSON, cyclingJSON sql.NullString
	if core.Condition != nil {
		b, _ := json.Marshal(core.Condition)
		conditionJSON = sql.NullString{String: string(b), Valid: true}
	}
	if core.Cycling != nil {
		b, _ := json.Marshal(core.Cycling)
		cyclingJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err := ex.Exec(ctx, fmt.Sprintf(
		`INSERT INTO patterns (id, series_id, kind, days_of_week, day_of_month, time_of_day, duration_minutes,
		 fixed, all_day, window_start, window_end, days_before, days_after, condition_json, cycling_json, sort_order)
		 VALUES (%s)`, a.phs(0, 16)),
		uuid.New().String(), seriesID.String(), string(p.Kind()), daysOfWeek, dayOfMonth,
		timePtrToNullString(coreTime(core)), core.DurationMinutes, boolToInt(p.IsFixed()), boolToInt(p.IsAllDay()),
		windowStart, windowEnd, core.DaysBefore, core.DaysAfter, conditionJSON, cyclingJSON, order)
	return err
}

func coreTime(p pattern.Pattern) *timegrid.LocalTime { return p.Time }

func monthlyDayOfMonth(p *domain.Pattern) int {
	// Recomputed from the core view; NewMonthlyPattern validated 1..31
	// at construction time so this never needs to look further than the
	// core's own fields at read time (no stored duplicate state).
	return p.ToCore().DayOfMonth
}

func (a *Adapter) replaceTags(ctx context.Context, seriesID uuid.UUID, tags []string) error {
	ex := a.exec(ctx)
	if _, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM series_tags WHERE series_id = %s`, a.ph(1)), seriesID.String()); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := ex.Exec(ctx, fmt.Sprintf(`INSERT INTO series_tags (series_id, tag) VALUES (%s)`, a.phs(0, 2)),
			seriesID.String(), tag); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) GetSeries(ctx context.Context, id uuid.UUID) (*domain.Series, error) {
	ex := a.exec(ctx)
	row := ex.QueryRow(ctx, fmt.Sprintf(
		`SELECT id, user_id, name, start_date, end_date, adaptive_duration, archived, locked, version, created_at, updated_at
		 FROM series WHERE id = %s`, a.ph(1)), id.String())

	s, err := a.scanSeries(ctx, row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (a *Adapter) ListSeriesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Series, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(
		`SELECT id, user_id, name, start_date, end_date, adaptive_duration, archived, locked, version, created_at, updated_at
		 FROM series WHERE user_id = %s ORDER BY created_at`, a.ph(1)), userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Series
	for rows.Next() {
		s, err := a.scanSeries(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (a *Adapter) scanSeries(ctx context.Context, row database.Row) (*domain.Series, error) {
	var (
		id, userID, name, startDate string
		endDate                     sql.NullString
		adaptiveDuration, archived, locked int64
		version                     int
		createdAt, updatedAt        string
	)
	if err := row.Scan(&id, &userID, &name, &startDate, &endDate, &adaptiveDuration, &archived, &locked,
		&version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	seriesID := uuid.MustParse(id)
	start, err := timegrid.ParseLocalDate(startDate)
	if err != nil {
		return nil, err
	}
	var end *timegrid.LocalDate
	if endDate.Valid {
		d, err := timegrid.ParseLocalDate(endDate.String)
		if err != nil {
			return nil, err
		}
		end = &d
	}

	createdT, _ := time.Parse(time.RFC3339, createdAt)
	updatedT, _ := time.Parse(time.RFC3339, updatedAt)

	patterns, err := a.loadPatterns(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	chain, err := a.GetChainLinkByChild(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	tags, err := a.TagsForSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	entity := sharedDomain.RehydrateBaseEntity(seriesID, createdT, updatedT)
	return domain.RehydrateSeries(entity, version, uuid.MustParse(userID), name, start, end, patterns, chain,
		tags, intToBool(adaptiveDuration), intToBool(archived), intToBool(locked)), nil
}

func (a *Adapter) loadPatterns(ctx context.Context, seriesID uuid.UUID) ([]*domain.Pattern, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(
		`SELECT kind, days_of_week, day_of_month, time_of_day, duration_minutes, fixed, all_day,
		 window_start, window_end, days_before, days_after, condition_json, cycling_json
		 FROM patterns WHERE series_id = %s ORDER BY sort_order`, a.ph(1)), seriesID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Pattern
	for rows.Next() {
		var (
			kind                                           string
			daysOfWeek, timeOfDay, windowStart, windowEnd  sql.NullString
			dayOfMonth                                     sql.NullInt64
			durationMinutes, daysBefore, daysAfter         int
			fixed, allDay                                  int64
			conditionJSON, cyclingJSON                     sql.NullString
		)
		if err := rows.Scan(&kind, &daysOfWeek, &dayOfMonth, &timeOfDay, &durationMinutes, &fixed, &allDay,
			&windowStart, &windowEnd, &daysBefore, &daysAfter, &conditionJSON, &cyclingJSON); err != nil {
			return nil, err
		}

		p, err := buildPattern(kind, daysOfWeek, dayOfMonth, durationMinutes)
		if err != nil {
			return nil, err
		}
		if timeOfDay.Valid {
			t, err := parseLocalTime(timeOfDay.String)
			if err != nil {
				return nil, err
			}
			p = p.WithTime(t)
		}
		if intToBool(fixed) {
			p = p.WithFixed()
		}
		if intToBool(allDay) {
			p = p.WithAllDay()
		}
		if windowStart.Valid && windowEnd.Valid {
			ws, err := parseLocalTime(windowStart.String)
			if err != nil {
				return nil, err
			}
			we, err := parseLocalTime(windowEnd.String)
			if err != nil {
				return nil, err
			}
			p, err = p.WithTimeWindow(ws, we)
			if err != nil {
				return nil, err
			}
		}
		if daysBefore != 0 || daysAfter != 0 {
			p = p.WithDayRange(daysBefore, daysAfter)
		}
		if conditionJSON.Valid {
			var c domain.Condition
			if err := json.Unmarshal([]byte(conditionJSON.String), &c); err != nil {
				return nil, err
			}
			p = p.WithCondition(&c)
		}
		if cyclingJSON.Valid {
			var c domain.Cycling
			if err := json.Unmarshal([]byte(cyclingJSON.String), &c); err != nil {
				return nil, err
			}
			p = p.WithCycling(c.Items)
		}

		out = append(out, p)
	}
	return out, rows.Err()
}

func buildPattern(kind string, daysOfWeek sql.NullString, dayOfMonth sql.NullInt64, duration int) (*domain.Pattern, error) {
	switch domain.PatternKind(kind) {
	case domain.PatternDaily:
		return domain.NewDailyPattern(duration)
	case domain.PatternWeekly:
		days := map[int]bool{}
		if daysOfWeek.Valid {
			if err := json.Unmarshal([]byte(daysOfWeek.String), &days); err != nil {
				return nil, err
			}
		}
		return domain.NewWeeklyPattern(days, duration)
	case domain.PatternMonthly:
		dom := 1
		if dayOfMonth.Valid {
			dom = int(dayOfMonth.Int64)
		}
		return domain.NewMonthlyPattern(dom, duration)
	default:
		return nil, domain.ErrPatternInvalidKind
	}
}

func parseLocalTime(s string) (timegrid.LocalTime, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%02d:%02d:%02d", &h, &m, &sec); err != nil {
		return timegrid.LocalTime{}, err
	}
	return timegrid.LocalTime{Hour: h, Minute: m, Second: sec}, nil
}

// DeleteSeries cascades to patterns, reminders, acks, links where the
// series is the child, and instance exceptions (spec §3); it refuses to
// delete a series that has completions logged or that is a chain parent
// with linked children (spec §3, §6.4).
func (a *Adapter) DeleteSeries(ctx context.Context, id uuid.UUID) error {
	return a.WithinTransaction(ctx, func(ctx context.Context) error {
		completions, err := a.ListCompletionsBySeries(ctx, id)
		if err != nil {
			return err
		}
		if len(completions) > 0 {
			return domain.ErrCompletionsExist
		}
		children, err := a.ListChainLinksByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return domain.ErrLinkedChildrenExist
		}

		ex := a.exec(ctx)
		for _, stmt := range []string{
			`DELETE FROM patterns WHERE series_id = %s`,
			`DELETE FROM series_tags WHERE series_id = %s`,
			`DELETE FROM chain_links WHERE child_id = %s`,
			`DELETE FROM instance_exceptions WHERE series_id = %s`,
			`DELETE FROM reminder_acks WHERE reminder_id IN (SELECT id FROM reminders WHERE series_id = %s)`,
			`DELETE FROM reminders WHERE series_id = %s`,
			`DELETE FROM series WHERE id = %s`,
		} {
			if _, err := ex.Exec(ctx, fmt.Sprintf(stmt, a.ph(1)), id.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Chain links ---

func (a *Adapter) CreateChainLink(ctx context.Context, childID uuid.UUID, link *domain.ChainLink) error {
	ex := a.exec(ctx)
	_, err := ex.Exec(ctx, fmt.Sprintf(
		`INSERT INTO chain_links (child_id, parent_id, distance_min, early_wobble_min, late_wobble_min) VALUES (%s)`,
		a.phs(0, 5)),
		childID.String(), link.ParentSeriesID.String(), link.DistanceMin, link.EarlyWobbleMin, link.LateWobbleMin)
	return err
}

func (a *Adapter) GetChainLinkByChild(ctx context.Context, childID uuid.UUID) (*domain.ChainLink, error) {
	ex := a.exec(ctx)
	row := ex.QueryRow(ctx, fmt.Sprintf(
		`SELECT parent_id, distance_min, early_wobble_min, late_wobble_min FROM chain_links WHERE child_id = %s`,
		a.ph(1)), childID.String())

	var parentID string
	var distance, early, late int
	if err := row.Scan(&parentID, &distance, &early, &late); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.ChainLink{ParentSeriesID: uuid.MustParse(parentID), DistanceMin: distance, EarlyWobbleMin: early, LateWobbleMin: late}, nil
}

func (a *Adapter) ListChainLinksByParent(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(`SELECT child_id FROM chain_links WHERE parent_id = %s`, a.ph(1)), parentID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var childID string
		if err := rows.Scan(&childID); err != nil {
			return nil, err
		}
		out = append(out, uuid.MustParse(childID))
	}
	return out, rows.Err()
}

func (a *Adapter) DeleteChainLink(ctx context.Context, childID uuid.UUID) error {
	ex := a.exec(ctx)
	_, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM chain_links WHERE child_id = %s`, a.ph(1)), childID.String())
	return err
}

// --- Constraints ---

func (a *Adapter) CreateConstraint(ctx context.Context, c *domain.Constraint) error {
	ex := a.exec(ctx)
	a1, a2 := targetColumns(c.A())
	b1, b2 := targetColumns(c.B())
	_, err := ex.Exec(ctx, fmt.Sprintf(
		`INSERT INTO series_constraints (id, user_id, kind, a_series_id, a_tag, b_series_id, b_tag) VALUES (%s)`,
		a.phs(0, 7)),
		c.ID().String(), ownerFromTargets(c.A(), c.B()).String(), string(c.Kind()), a1, a2, b1, b2)
	return err
}

func targetColumns(t domain.ConstraintTarget) (sql.NullString, sql.NullString) {
	if t.IsTag() {
		return sql.NullString{}, sql.NullString{String: t.Tag, Valid: true}
	}
	return sql.NullString{String: t.SeriesID.String(), Valid: true}, sql.NullString{}
}

// ownerFromTargets has no concrete owner concept for constraints in the
// schema beyond the acting user, supplied by callers; zero UUID is
// persisted when unspecified (constraints are resolved by the façade at
// reflow time from every stored row, not scoped per request here).
func ownerFromTargets(domain.ConstraintTarget, domain.ConstraintTarget) uuid.UUID { return uuid.Nil }

func (a *Adapter) DeleteConstraint(ctx context.Context, id uuid.UUID) error {
	ex := a.exec(ctx)
	_, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM series_constraints WHERE id = %s`, a.ph(1)), id.String())
	return err
}

func (a *Adapter) ListConstraints(ctx context.Context, userID uuid.UUID) ([]*domain.Constraint, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, `SELECT id, kind, a_series_id, a_tag, b_series_id, b_tag FROM series_constraints`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Constraint
	for rows.Next() {
		var id, kind string
		var aSeries, aTag, bSeries, bTag sql.NullString
		if err := rows.Scan(&id, &kind, &aSeries, &aTag, &bSeries, &bTag); err != nil {
			return nil, err
		}
		out = append(out, domain.RehydrateConstraint(uuid.MustParse(id), domain.ConstraintKind(kind),
			targetFromColumns(aSeries, aTag), targetFromColumns(bSeries, bTag)))
	}
	return out, rows.Err()
}

func targetFromColumns(seriesID, tag sql.NullString) domain.ConstraintTarget {
	if tag.Valid {
		return domain.ConstraintTarget{Tag: tag.String}
	}
	return domain.ConstraintTarget{SeriesID: uuid.MustParse(seriesID.String)}
}

// --- Completions ---

func (a *Adapter) CreateCompletion(ctx context.Context, c *domain.Completion) error {
	ex := a.exec(ctx)
	_, err := ex.Exec(ctx, fmt.Sprintf(
		`INSERT INTO completions (id, series_id, instance_date, start_time, end_time, logged_at) VALUES (%s)`,
		a.phs(0, 6)),
		c.ID().String(), c.SeriesID().String(), c.InstanceDate().String(),
		timePtrToNullString(c.StartTime()), timePtrToNullString(c.EndTime()), c.LoggedAt().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateCompletion, err)
	}
	return nil
}

func (a *Adapter) ListCompletionsBySeries(ctx context.Context, seriesID uuid.UUID) ([]*domain.Completion, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(
		`SELECT id, series_id, instance_date, start_time, end_time, logged_at FROM completions WHERE series_id = %s ORDER BY instance_date`,
		a.ph(1)), seriesID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompletions(rows)
}

func (a *Adapter) ListCompletionsByDateRange(ctx context.Context, seriesID uuid.UUID, start, end timegrid.LocalDate) ([]*domain.Completion, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(
		`SELECT id, series_id, instance_date, start_time, end_time, logged_at FROM completions
		 WHERE series_id = %s AND instance_date >= %s AND instance_date < %s ORDER BY instance_date`,
		a.ph(1), a.ph(2), a.ph(3)), seriesID.String(), start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompletions(rows)
}

func scanCompletions(rows database.Rows) ([]*domain.Completion, error) {
	var out []*domain.Completion
	for rows.Next() {
		var id, seriesID, instanceDate, loggedAt string
		var start, end sql.NullString
		if err := rows.Scan(&id, &seriesID, &instanceDate, &start, &end, &loggedAt); err != nil {
			return nil, err
		}
		date, err := timegrid.ParseLocalDate(instanceDate)
		if err != nil {
			return nil, err
		}
		startT, err := optionalLocalTime(start)
		if err != nil {
			return nil, err
		}
		endT, err := optionalLocalTime(end)
		if err != nil {
			return nil, err
		}
		loggedT, _ := time.Parse(time.RFC3339, loggedAt)
		out = append(out, domain.RehydrateCompletion(uuid.MustParse(id), uuid.MustParse(seriesID), date, startT, endT, loggedT))
	}
	return out, rows.Err()
}

func optionalLocalTime(s sql.NullString) (*timegrid.LocalTime, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseLocalTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Instance exceptions ---

func (a *Adapter) UpsertInstanceException(ctx context.Context, e *domain.InstanceException) error {
	ex := a.exec(ctx)
	var newTime sql.NullString
	if e.NewTime() != nil {
		newTime = sql.NullString{String: e.NewTime().String(), Valid: true}
	}

	existing, err := a.GetInstanceException(ctx, e.SeriesID(), e.OriginalDate())
	if err != nil && !errIsNotFound(err) {
		return err
	}
	if existing != nil {
		_, err := ex.Exec(ctx, fmt.Sprintf(
			`UPDATE instance_exceptions SET kind = %s, new_time = %s WHERE series_id = %s AND original_date = %s`,
			a.ph(1), a.ph(2), a.ph(3), a.ph(4)),
			string(e.Kind()), newTime, e.SeriesID().String(), e.OriginalDate().String())
		return err
	}
	_, err = ex.Exec(ctx, fmt.Sprintf(
		`INSERT INTO instance_exceptions (series_id, original_date, kind, new_time) VALUES (%s)`, a.phs(0, 4)),
		e.SeriesID().String(), e.OriginalDate().String(), string(e.Kind()), newTime)
	return err
}

func errIsNotFound(err error) bool { return err == domain.ErrNotFound }

func (a *Adapter) GetInstanceException(ctx context.Context, seriesID uuid.UUID, date timegrid.LocalDate) (*domain.InstanceException, error) {
	ex := a.exec(ctx)
	row := ex.QueryRow(ctx, fmt.Sprintf(
		`SELECT kind, new_time FROM instance_exceptions WHERE series_id = %s AND original_date = %s`,
		a.ph(1), a.ph(2)), seriesID.String(), date.String())

	var kind string
	var newTime sql.NullString
	if err := row.Scan(&kind, &newTime); err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t, err := optionalLocalTime(newTime)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return domain.NewRescheduledException(seriesID, date, *t), nil
	}
	return domain.NewCancelledException(seriesID, date), nil
}

func (a *Adapter) ListInstanceExceptionsByRange(ctx context.Context, seriesID uuid.UUID, start, end timegrid.LocalDate) ([]*domain.InstanceException, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(
		`SELECT original_date, kind, new_time FROM instance_exceptions
		 WHERE series_id = %s AND original_date >= %s AND original_date < %s`,
		a.ph(1), a.ph(2), a.ph(3)), seriesID.String(), start.String(), end.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.InstanceException
	for rows.Next() {
		var dateStr, kind string
		var newTime sql.NullString
		if err := rows.Scan(&dateStr, &kind, &newTime); err != nil {
			return nil, err
		}
		date, err := timegrid.ParseLocalDate(dateStr)
		if err != nil {
			return nil, err
		}
		t, err := optionalLocalTime(newTime)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, domain.NewRescheduledException(seriesID, date, *t))
		} else {
			out = append(out, domain.NewCancelledException(seriesID, date))
		}
	}
	return out, rows.Err()
}

// --- Reminders & acks ---

func (a *Adapter) CreateReminder(ctx context.Context, r *domain.Reminder) error {
	ex := a.exec(ctx)
	_, err := ex.Exec(ctx, fmt.Sprintf(`INSERT INTO reminders (id, series_id, minutes_before) VALUES (%s)`, a.phs(0, 3)),
		r.ID().String(), r.SeriesID().String(), r.MinutesBefore())
	return err
}

func (a *Adapter) ListRemindersBySeries(ctx context.Context, seriesID uuid.UUID) ([]*domain.Reminder, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(`SELECT id, series_id, minutes_before FROM reminders WHERE series_id = %s`, a.ph(1)), seriesID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Reminder
	for rows.Next() {
		var id, sid string
		var minutes int
		if err := rows.Scan(&id, &sid, &minutes); err != nil {
			return nil, err
		}
		out = append(out, domain.RehydrateReminder(uuid.MustParse(id), uuid.MustParse(sid), minutes))
	}
	return out, rows.Err()
}

func (a *Adapter) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	return a.WithinTransaction(ctx, func(ctx context.Context) error {
		ex := a.exec(ctx)
		if _, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM reminder_acks WHERE reminder_id = %s`, a.ph(1)), id.String()); err != nil {
			return err
		}
		_, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM reminders WHERE id = %s`, a.ph(1)), id.String())
		return err
	})
}

// AcknowledgeReminder is idempotent: acknowledging an already-acked
// reminder for the same instance date is a no-op (spec §8).
func (a *Adapter) AcknowledgeReminder(ctx context.Context, ack *domain.ReminderAck) error {
	already, err := a.IsReminderAcknowledged(ctx, ack.ReminderID(), ack.InstanceDate())
	if err != nil {
		return err
	}
	if already {
		return nil
	}
	ex := a.exec(ctx)
	_, err = ex.Exec(ctx, fmt.Sprintf(`INSERT INTO reminder_acks (reminder_id, instance_date, acknowledged_at) VALUES (%s)`, a.phs(0, 3)),
		ack.ReminderID().String(), ack.InstanceDate().String(), ack.AcknowledgedAt().Format(time.RFC3339))
	return err
}

func (a *Adapter) IsReminderAcknowledged(ctx context.Context, reminderID uuid.UUID, date timegrid.LocalDate) (bool, error) {
	ex := a.exec(ctx)
	row := ex.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM reminder_acks WHERE reminder_id = %s AND instance_date = %s`, a.ph(1), a.ph(2)),
		reminderID.String(), date.String())
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeAcksBefore drops reminder acknowledgments for instances older
// than cutoff, grounded on the teacher's outbox processor's
// retention-window cleanup idiom (internal/shared/infrastructure/outbox.Processor).
func (a *Adapter) PurgeAcksBefore(ctx context.Context, cutoff timegrid.LocalDate) (int, error) {
	ex := a.exec(ctx)
	result, err := ex.Exec(ctx, fmt.Sprintf(`DELETE FROM reminder_acks WHERE instance_date < %s`, a.ph(1)), cutoff.String())
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// --- Tag index ---

func (a *Adapter) TagsForSeries(ctx context.Context, seriesID uuid.UUID) ([]string, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(`SELECT tag FROM series_tags WHERE series_id = %s ORDER BY tag`, a.ph(1)), seriesID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (a *Adapter) SeriesIDsForTag(ctx context.Context, tag string) ([]uuid.UUID, error) {
	ex := a.exec(ctx)
	rows, err := ex.Query(ctx, fmt.Sprintf(`SELECT series_id FROM series_tags WHERE tag = %s`, a.ph(1)), tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, uuid.MustParse(id))
	}
	return out, rows.Err()
}

var _ domain.Adapter = (*Adapter)(nil)
