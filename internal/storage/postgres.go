// internal/storage/postgres.go
// PostgreSQL-backed implementation of the Store interface. The schema is
// created on startup if it does not exist. Counter adjustments are done with
// single-statement relative updates so concurrent writers never lose deltas.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kb28022004/toperNoteBackend/internal/model"
)

// postgres implements the Store interface backed by PostgreSQL.
type postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed store and ensures the schema exists.
func NewPostgres(ctx context.Context, databaseURL string) (Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &postgres{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *postgres) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS contributor_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		short_bio TEXT NOT NULL DEFAULT '',
		photo_path TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL,
		stream TEXT NOT NULL DEFAULT '',
		board TEXT NOT NULL,
		subject_marks JSONB NOT NULL DEFAULT '[]',
		marksheet_path TEXT NOT NULL DEFAULT '',
		achievements JSONB NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		admin_remark TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		follower_count INTEGER NOT NULL DEFAULT 0,
		total_documents INTEGER NOT NULL DEFAULT 0,
		total_sold INTEGER NOT NULL DEFAULT 0,
		rating_average DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profiles_status ON contributor_profiles(status);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		contributor_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		chapter_name TEXT NOT NULL,
		class TEXT NOT NULL,
		board TEXT NOT NULL,
		price INTEGER NOT NULL,
		pdf_path TEXT NOT NULL,
		page_count INTEGER NOT NULL DEFAULT 0,
		preview_pages JSONB NOT NULL DEFAULT '[]',
		public_preview_count INTEGER NOT NULL DEFAULT 0,
		tags JSONB NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		admin_remark TEXT NOT NULL DEFAULT '',
		sold_count INTEGER NOT NULL DEFAULT 0,
		rating_average DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	CREATE INDEX IF NOT EXISTS idx_documents_contributor ON documents(contributor_id);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		contributor_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		amount_paid INTEGER NOT NULL,
		receipt TEXT NOT NULL,
		gateway_order_id TEXT NOT NULL UNIQUE,
		gateway_payment_id TEXT NOT NULL DEFAULT '',
		gateway_signature TEXT NOT NULL DEFAULT '',
		payment_status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_document ON orders(document_id);
	CREATE INDEX IF NOT EXISTS idx_orders_student ON orders(student_id);

	CREATE TABLE IF NOT EXISTS reviews (
		document_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		is_verified_purchase BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (document_id, student_id)
	);

	CREATE TABLE IF NOT EXISTS follow_edges (
		follower_id TEXT NOT NULL,
		following_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (follower_id, following_id)
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// isUniqueViolation checks whether the error is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *postgres) UpsertProfile(ctx context.Context, profile model.ContributorProfile) (*model.ContributorProfile, error) {
	marks, err := json.Marshal(profile.SubjectMarks)
	if err != nil {
		return nil, fmt.Errorf("marshal subject marks: %w", err)
	}
	achievements, err := json.Marshal(profile.Achievements)
	if err != nil {
		return nil, fmt.Errorf("marshal achievements: %w", err)
	}

	now := time.Now().UTC()
	// On re-submission the profile keeps its identity, counters, and
	// creation time; everything else is replaced.
	row := s.pool.QueryRow(ctx, `
		INSERT INTO contributor_profiles (
			id, user_id, first_name, last_name, short_bio, photo_path,
			class, stream, board, subject_marks, marksheet_path,
			achievements, status, admin_remark, verified, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$16)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			short_bio = EXCLUDED.short_bio,
			photo_path = EXCLUDED.photo_path,
			class = EXCLUDED.class,
			stream = EXCLUDED.stream,
			board = EXCLUDED.board,
			subject_marks = EXCLUDED.subject_marks,
			marksheet_path = EXCLUDED.marksheet_path,
			achievements = EXCLUDED.achievements,
			status = EXCLUDED.status,
			admin_remark = EXCLUDED.admin_remark,
			verified = EXCLUDED.verified,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns,
		profile.ID, profile.UserID, profile.FirstName, profile.LastName,
		profile.ShortBio, profile.PhotoPath, profile.Class, profile.Stream,
		profile.Board, marks, profile.MarksheetPath, achievements,
		profile.Status, profile.AdminRemark, profile.Verified, now,
	)
	return scanProfile(row)
}

const profileColumns = `id, user_id, first_name, last_name, short_bio, photo_path,
	class, stream, board, subject_marks, marksheet_path, achievements,
	status, admin_remark, verified, follower_count, total_documents,
	total_sold, rating_average, rating_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.ContributorProfile, error) {
	var p model.ContributorProfile
	var marks, achievements []byte
	err := row.Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.ShortBio,
		&p.PhotoPath, &p.Class, &p.Stream, &p.Board, &marks,
		&p.MarksheetPath, &achievements, &p.Status, &p.AdminRemark,
		&p.Verified, &p.Stats.FollowerCount, &p.Stats.TotalDocuments,
		&p.Stats.TotalSold, &p.Stats.RatingAverage, &p.Stats.RatingCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(marks, &p.SubjectMarks); err != nil {
		return nil, fmt.Errorf("unmarshal subject marks: %w", err)
	}
	if err := json.Unmarshal(achievements, &p.Achievements); err != nil {
		return nil, fmt.Errorf("unmarshal achievements: %w", err)
	}
	return &p, nil
}

func (s *postgres) GetProfile(ctx context.Context, id string) (*model.ContributorProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM contributor_profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (s *postgres) GetProfileByUser(ctx context.Context, userID string) (*model.ContributorProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM contributor_profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

func (s *postgres) ListProfilesByStatus(ctx context.Context, status model.ProfileStatus) ([]model.ContributorProfile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM contributor_profiles
		 WHERE status = $1 ORDER BY created_at DESC, id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.ContributorProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (s *postgres) UpdateProfileDecision(ctx context.Context, id string, status model.ProfileStatus, remark string, verified bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contributor_profiles
		SET status = $2, admin_remark = $3, verified = $4, updated_at = $5
		WHERE id = $1`,
		id, status, remark, verified, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgres) AddProfileCounters(ctx context.Context, userID string, delta CounterDelta) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contributor_profiles
		SET follower_count = GREATEST(follower_count + $2, 0),
		    total_documents = total_documents + $3,
		    total_sold = total_sold + $4,
		    updated_at = $5
		WHERE user_id = $1`,
		userID, delta.Followers, delta.TotalDocuments, delta.TotalSold, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgres) SetProfileRating(ctx context.Context, userID string, average float64, count int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contributor_profiles
		SET rating_average = $2, rating_count = $3, updated_at = $4
		WHERE user_id = $1`,
		userID, average, count, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const documentColumns = `id, contributor_id, subject, chapter_name, class, board,
	price, pdf_path, page_count, preview_pages, public_preview_count, tags,
	status, admin_remark, sold_count, rating_average, rating_count,
	created_at, updated_at`

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var previews, tags []byte
	err := row.Scan(
		&d.ID, &d.ContributorID, &d.Subject, &d.ChapterName, &d.Class,
		&d.Board, &d.Price, &d.PDFPath, &d.PageCount, &previews,
		&d.PublicPreviewCount, &tags, &d.Status, &d.AdminRemark,
		&d.Stats.SoldCount, &d.Stats.RatingAverage, &d.Stats.RatingCount,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(previews, &d.PreviewPages); err != nil {
		return nil, fmt.Errorf("unmarshal preview pages: %w", err)
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &d, nil
}

func (s *postgres) CreateDocument(ctx context.Context, doc model.Document) error {
	previews, err := json.Marshal(doc.PreviewPages)
	if err != nil {
		return fmt.Errorf("marshal preview pages: %w", err)
	}
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (
			id, contributor_id, subject, chapter_name, class, board, price,
			pdf_path, page_count, preview_pages, public_preview_count, tags,
			status, admin_remark, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)`,
		doc.ID, doc.ContributorID, doc.Subject, doc.ChapterName, doc.Class,
		doc.Board, doc.Price, doc.PDFPath, doc.PageCount, previews,
		doc.PublicPreviewCount, tags, doc.Status, doc.AdminRemark, now)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *postgres) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *postgres) queryDocuments(ctx context.Context, query string, args ...any) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (s *postgres) ListDocumentsByStatus(ctx context.Context, status model.DocumentStatus) ([]model.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents
		 WHERE status = $1 ORDER BY created_at DESC, id`, status)
}

func (s *postgres) ListPublishedByContributor(ctx context.Context, contributorID string, limit int) ([]model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents
		 WHERE contributor_id = $1 AND status = $2
		 ORDER BY created_at DESC, id`
	if limit > 0 {
		return s.queryDocuments(ctx, query+` LIMIT $3`,
			contributorID, model.DocumentPublished, limit)
	}
	return s.queryDocuments(ctx, query, contributorID, model.DocumentPublished)
}

func (s *postgres) ListPublished(ctx context.Context, filter model.MarketplaceFilter, page, limit int) ([]model.Document, int, error) {
	conditions := []string{"status = $1"}
	args := []any{model.DocumentPublished}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conditions = append(conditions, fmt.Sprintf("LOWER(subject) = LOWER($%d)", len(args)))
	}
	if filter.Class != "" {
		args = append(args, filter.Class)
		conditions = append(conditions, fmt.Sprintf("class = $%d", len(args)))
	}
	if filter.Board != "" {
		args = append(args, filter.Board)
		conditions = append(conditions, fmt.Sprintf("board = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	docs, err := s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (s *postgres) UpdateDocumentDecision(ctx context.Context, id string, status model.DocumentStatus, remark string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET status = $2, admin_remark = $3, updated_at = $4
		WHERE id = $1`,
		id, status, remark, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgres) AddDocumentSold(ctx context.Context, id string, delta int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET sold_count = sold_count + $2, updated_at = $3
		WHERE id = $1`,
		id, delta, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgres) SetDocumentRating(ctx context.Context, id string, average float64, count int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET rating_average = $2, rating_count = $3, updated_at = $4
		WHERE id = $1`,
		id, average, count, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const orderColumns = `id, document_id, contributor_id, student_id, amount_paid,
	receipt, gateway_order_id, gateway_payment_id, gateway_signature,
	payment_status, created_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.DocumentID, &o.ContributorID, &o.StudentID, &o.AmountPaid,
		&o.Receipt, &o.GatewayOrderID, &o.GatewayPaymentID,
		&o.GatewaySignature, &o.PaymentStatus, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *postgres) CreateOrder(ctx context.Context, order model.Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (
			id, document_id, contributor_id, student_id, amount_paid, receipt,
			gateway_order_id, gateway_payment_id, gateway_signature,
			payment_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		order.ID, order.DocumentID, order.ContributorID, order.StudentID,
		order.AmountPaid, order.Receipt, order.GatewayOrderID,
		order.GatewayPaymentID, order.GatewaySignature, order.PaymentStatus,
		time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *postgres) GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (*model.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1`, gatewayOrderID)
	return scanOrder(row)
}

func (s *postgres) MarkOrderPayment(ctx context.Context, id string, status model.PaymentStatus, paymentID, signature string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = $2, gateway_payment_id = $3, gateway_signature = $4
		WHERE id = $1 AND payment_status = 'PENDING'`,
		id, status, paymentID, signature)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing order from one another delivery settled.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrConflict
		}
		return ErrNotFound
	}
	return nil
}

func (s *postgres) OrderExists(ctx context.Context, documentID, studentID string, status model.PaymentStatus) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE document_id = $1 AND student_id = $2 AND payment_status = $3
		)`, documentID, studentID, status).Scan(&exists)
	return exists, err
}

func (s *postgres) ListOrdersByDocument(ctx context.Context, documentID string, status model.PaymentStatus) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE document_id = $1 AND payment_status = $2
		 ORDER BY created_at DESC`, documentID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func (s *postgres) UpsertReview(ctx context.Context, review model.Review) (*model.Review, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reviews (
			document_id, student_id, rating, comment,
			is_verified_purchase, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (document_id, student_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			is_verified_purchase = EXCLUDED.is_verified_purchase,
			updated_at = EXCLUDED.updated_at
		RETURNING document_id, student_id, rating, comment,
			is_verified_purchase, created_at, updated_at`,
		review.DocumentID, review.StudentID, review.Rating, review.Comment,
		review.IsVerifiedPurchase, now)

	var r model.Review
	if err := row.Scan(&r.DocumentID, &r.StudentID, &r.Rating, &r.Comment,
		&r.IsVerifiedPurchase, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *postgres) ListReviewsByDocument(ctx context.Context, documentID string) ([]model.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT document_id, student_id, rating, comment,
			is_verified_purchase, created_at, updated_at
		FROM reviews WHERE document_id = $1
		ORDER BY updated_at DESC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]model.Review, 0)
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.DocumentID, &r.StudentID, &r.Rating, &r.Comment,
			&r.IsVerifiedPurchase, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *postgres) DocumentRating(ctx context.Context, documentID string) (float64, int, error) {
	var average float64
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews WHERE document_id = $1`, documentID).Scan(&average, &count)
	return average, count, err
}

func (s *postgres) CreateFollow(ctx context.Context, edge model.FollowEdge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO follow_edges (follower_id, following_id, created_at)
		VALUES ($1,$2,$3)`,
		edge.FollowerID, edge.FollowingID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *postgres) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM follow_edges WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *postgres) FollowExists(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follow_edges WHERE follower_id = $1 AND following_id = $2
		)`, followerID, followingID).Scan(&exists)
	return exists, err
}
