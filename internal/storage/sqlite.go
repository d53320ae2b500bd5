package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/observe"
)

var _ domain.Store = (*SQLiteStore)(nil)

type favoriteRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	ThumbnailURL sql.NullString `db:"thumbnail_url"`
	Category     sql.NullString `db:"category"`
	Area         sql.NullString `db:"area"`
	Instructions sql.NullString `db:"instructions"`
	SavedAt      int64          `db:"saved_at"`
}

func (r favoriteRow) toDomain() domain.Favorite {
	return domain.Favorite{
		ID:           r.ID,
		Title:        r.Title,
		ThumbnailURL: r.ThumbnailURL.String,
		Category:     r.Category.String,
		Area:         r.Area.String,
		Instructions: r.Instructions.String,
		SavedAt:      time.UnixMilli(r.SavedAt),
	}
}

type userRecipeRow struct {
	LocalID      int64          `db:"local_id"`
	Title        string         `db:"title"`
	Category     sql.NullString `db:"category"`
	Area         sql.NullString `db:"area"`
	Instructions sql.NullString `db:"instructions"`
	ThumbnailURI sql.NullString `db:"thumbnail_uri"`
	CreatedAt    int64          `db:"created_at"`
	UpdatedAt    int64          `db:"updated_at"`
}

func (r userRecipeRow) toDomain() domain.UserRecipe {
	return domain.UserRecipe{
		LocalID:      r.LocalID,
		Title:        r.Title,
		Category:     r.Category.String,
		Area:         r.Area.String,
		Instructions: r.Instructions.String,
		ThumbnailURI: r.ThumbnailURI.String,
		CreatedAt:    time.UnixMilli(r.CreatedAt),
		UpdatedAt:    time.UnixMilli(r.UpdatedAt),
	}
}

const (
	upsertFavoriteSQL = `INSERT INTO favorites (id, title, thumbnail_url, category, area, instructions, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    thumbnail_url = excluded.thumbnail_url,
    category = excluded.category,
    area = excluded.area,
    instructions = excluded.instructions,
    saved_at = excluded.saved_at`

	selectFavoritesSQL = `SELECT id, title, thumbnail_url, category, area, instructions, saved_at
FROM favorites ORDER BY saved_at DESC, id`

	selectUserRecipesSQL = `SELECT local_id, title, category, area, instructions, thumbnail_uri, created_at, updated_at
FROM user_recipes`
)

// SQLiteStore is the persistent Store. Reads go straight to the database;
// every successful write re-reads the affected table and publishes the new
// snapshot on its stream.
type SQLiteStore struct {
	db  *sqlx.DB
	log *logger.Logger

	// wmu serializes write+republish so snapshots land in write order.
	wmu         sync.Mutex
	favorites   *observe.Value[[]domain.Favorite]
	userRecipes *observe.Value[[]domain.UserRecipe]

	closeOnce sync.Once
	closed    atomic.Bool
	now       func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithClock overrides the time source used for saved/created/updated stamps.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// NewSQLiteStore wraps an open database whose schema is already applied.
// It does not query the database; call Refresh to seed the streams.
func NewSQLiteStore(db *sqlx.DB, log *logger.Logger, opts ...SQLiteOption) *SQLiteStore {
	s := &SQLiteStore{
		db:          db,
		log:         log,
		favorites:   observe.NewValue[[]domain.Favorite](nil),
		userRecipes: observe.NewValue[[]domain.UserRecipe](nil),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLite opens (or creates) the database at path and returns a store
// with both streams seeded.
func OpenSQLite(ctx context.Context, path string, log *logger.Logger, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteStore(db, log, opts...)
	if err := s.Refresh(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("opened store at %s", path)
	return s, nil
}

// Refresh re-reads both tables and publishes them.
func (s *SQLiteStore) Refresh(ctx context.Context) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.publishFavoritesLocked(ctx); err != nil {
		return err
	}
	return s.publishUserRecipesLocked(ctx)
}

// --- favorites ---

// SaveFavorite inserts fav or replaces the row with the same ID.
func (s *SQLiteStore) SaveFavorite(ctx context.Context, fav domain.Favorite) error {
	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	savedAt := fav.SavedAt
	if savedAt.IsZero() {
		savedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, upsertFavoriteSQL,
		fav.ID, fav.Title,
		nullString(fav.ThumbnailURL), nullString(fav.Category),
		nullString(fav.Area), nullString(fav.Instructions),
		savedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: save favorite %s: %w", fav.ID, err)
	}
	s.log.Debug("saved favorite %s (%q)", fav.ID, fav.Title)
	s.afterFavoritesWrite(ctx)
	return nil
}

// DeleteFavorite removes the favorite. A missing ID is not an error.
func (s *SQLiteStore) DeleteFavorite(ctx context.Context, id string) error {
	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete favorite %s: %w", id, err)
	}
	s.log.Debug("deleted favorite %s", id)
	s.afterFavoritesWrite(ctx)
	return nil
}

// IsFavorite reports whether a favorite with id exists.
func (s *SQLiteStore) IsFavorite(ctx context.Context, id string) (bool, error) {
	if s.isClosed() {
		return false, domain.ErrStoreClosed
	}
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM favorites WHERE id = ?)`, id)
	if err != nil {
		return false, fmt.Errorf("storage: check favorite %s: %w", id, err)
	}
	return exists, nil
}

// ListFavorites returns all favorites, newest first.
func (s *SQLiteStore) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	if s.isClosed() {
		return nil, domain.ErrStoreClosed
	}
	var rows []favoriteRow
	if err := s.db.SelectContext(ctx, &rows, selectFavoritesSQL); err != nil {
		return nil, fmt.Errorf("storage: list favorites: %w", err)
	}
	out := make([]domain.Favorite, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Favorites is the live favorites stream.
func (s *SQLiteStore) Favorites() domain.Stream[[]domain.Favorite] { return s.favorites }

// --- user recipes ---

// InsertUserRecipe stores a new recipe. The store assigns LocalID; IDs are
// never reused, even after deletes.
func (s *SQLiteStore) InsertUserRecipe(ctx context.Context, fields domain.UserRecipeFields) (domain.UserRecipe, error) {
	if s.isClosed() {
		return domain.UserRecipe{}, domain.ErrStoreClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_recipes (title, category, area, instructions, thumbnail_uri, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fields.Title, nullString(fields.Category), nullString(fields.Area),
		nullString(fields.Instructions), nullString(fields.ThumbnailURI),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return domain.UserRecipe{}, fmt.Errorf("storage: insert user recipe: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.UserRecipe{}, fmt.Errorf("storage: insert user recipe: %w", err)
	}

	rec := domain.UserRecipe{
		LocalID:      id,
		Title:        fields.Title,
		Category:     fields.Category,
		Area:         fields.Area,
		Instructions: fields.Instructions,
		ThumbnailURI: fields.ThumbnailURI,
		CreatedAt:    time.UnixMilli(now.UnixMilli()),
		UpdatedAt:    time.UnixMilli(now.UnixMilli()),
	}
	s.log.Debug("inserted user recipe %d (%q)", id, fields.Title)
	s.afterUserRecipesWrite(ctx)
	return rec, nil
}

// UpdateUserRecipe replaces every field of the row with rec.LocalID.
func (s *SQLiteStore) UpdateUserRecipe(ctx context.Context, rec domain.UserRecipe) error {
	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE user_recipes SET title = ?, category = ?, area = ?, instructions = ?, thumbnail_uri = ?, updated_at = ?
WHERE local_id = ?`,
		rec.Title, nullString(rec.Category), nullString(rec.Area),
		nullString(rec.Instructions), nullString(rec.ThumbnailURI),
		s.now().UnixMilli(), rec.LocalID,
	)
	if err != nil {
		return fmt.Errorf("storage: update user recipe %d: %w", rec.LocalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: update user recipe %d: %w", rec.LocalID, err)
	}
	if n == 0 {
		return fmt.Errorf("storage: update user recipe %d: %w", rec.LocalID, domain.ErrNotFound)
	}
	s.log.Debug("updated user recipe %d", rec.LocalID)
	s.afterUserRecipesWrite(ctx)
	return nil
}

// DeleteUserRecipe removes the row. A missing ID is not an error.
func (s *SQLiteStore) DeleteUserRecipe(ctx context.Context, localID int64) error {
	if s.isClosed() {
		return domain.ErrStoreClosed
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_recipes WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("storage: delete user recipe %d: %w", localID, err)
	}
	s.log.Debug("deleted user recipe %d", localID)
	s.afterUserRecipesWrite(ctx)
	return nil
}

// GetUserRecipe returns the row or ErrNotFound.
func (s *SQLiteStore) GetUserRecipe(ctx context.Context, localID int64) (*domain.UserRecipe, error) {
	if s.isClosed() {
		return nil, domain.ErrStoreClosed
	}
	var row userRecipeRow
	err := s.db.GetContext(ctx, &row, selectUserRecipesSQL+` WHERE local_id = ?`, localID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get user recipe %d: %w", localID, err)
	}
	rec := row.toDomain()
	return &rec, nil
}

// ListUserRecipes returns all user recipes, newest first.
func (s *SQLiteStore) ListUserRecipes(ctx context.Context) ([]domain.UserRecipe, error) {
	if s.isClosed() {
		return nil, domain.ErrStoreClosed
	}
	var rows []userRecipeRow
	if err := s.db.SelectContext(ctx, &rows, selectUserRecipesSQL+` ORDER BY local_id DESC`); err != nil {
		return nil, fmt.Errorf("storage: list user recipes: %w", err)
	}
	out := make([]domain.UserRecipe, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// UserRecipes is the live user-recipe stream.
func (s *SQLiteStore) UserRecipes() domain.Stream[[]domain.UserRecipe] { return s.userRecipes }

// Close ends both streams and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.wmu.Lock()
		defer s.wmu.Unlock()

		s.favorites.Close()
		s.userRecipes.Close()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteStore) isClosed() bool { return s.closed.Load() }

// publishFavoritesLocked assumes wmu is held. A failed re-read leaves the
// stream at its previous snapshot.
func (s *SQLiteStore) publishFavoritesLocked(ctx context.Context) error {
	favs, err := s.ListFavorites(ctx)
	if err != nil {
		s.log.Warn("refreshing favorites stream: %v", err)
		return err
	}
	s.favorites.Set(favs)
	return nil
}

func (s *SQLiteStore) publishUserRecipesLocked(ctx context.Context) error {
	recs, err := s.ListUserRecipes(ctx)
	if err != nil {
		s.log.Warn("refreshing user recipes stream: %v", err)
		return err
	}
	s.userRecipes.Set(recs)
	return nil
}

// afterFavoritesWrite republishes once a write has committed. The write
// stands even if the re-read fails; the failure is only logged.
func (s *SQLiteStore) afterFavoritesWrite(ctx context.Context) {
	_ = s.publishFavoritesLocked(ctx)
}

func (s *SQLiteStore) afterUserRecipesWrite(ctx context.Context) {
	_ = s.publishUserRecipesLocked(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
