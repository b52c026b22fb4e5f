package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/pokestock/internal/model"
)

// sqliteTime is the layout SQLite uses for CURRENT_TIMESTAMP.
const sqliteTime = "2006-01-02 15:04:05"

const cardColumns = `id, owner_id, name, card_set, condition, price, image_mime, created_at, updated_at`

func scanCard(row interface{ Scan(...any) error }) (*model.Card, error) {
	c := &model.Card{}
	var imageMime sql.NullString
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Set, &c.Condition, &c.Price, &imageMime, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ImageMime = imageMime.String
	return c, nil
}

// CreateCard inserts a card owned by ownerID.
func CreateCard(ctx context.Context, db *sql.DB, ownerID int64, in model.CardInput) (*model.Card, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO cards (owner_id, name, card_set, condition, price) VALUES (?, ?, ?, ?, ?)`,
		ownerID, in.Name, in.Set, in.Condition, in.Price,
	)
	if err != nil {
		return nil, fmt.Errorf("creating card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting card id: %w", err)
	}

	return GetCard(ctx, db, ownerID, id)
}

// GetCard returns a card by ID. Cards of other owners are reported as missing.
func GetCard(ctx context.Context, db *sql.DB, ownerID, id int64) (*model.Card, error) {
	c, err := scanCard(db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting card: %w", err)
	}
	return c, nil
}

// ListCards returns the owner's cards, newest first. A zero since returns all of them.
func ListCards(ctx context.Context, db *sql.DB, ownerID int64, since time.Time) ([]model.Card, error) {
	var rows *sql.Rows
	var err error

	if !since.IsZero() {
		rows, err = db.QueryContext(ctx,
			`SELECT `+cardColumns+` FROM cards
			 WHERE owner_id = ? AND created_at >= ?
			 ORDER BY created_at DESC, id DESC`,
			ownerID, since.UTC().Format(sqliteTime),
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+cardColumns+` FROM cards
			 WHERE owner_id = ?
			 ORDER BY created_at DESC, id DESC`,
			ownerID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// UpdateCard replaces a card's mutable fields. Returns model.ErrNotFound if
// the card does not exist or belongs to another owner.
func UpdateCard(ctx context.Context, db *sql.DB, ownerID, id int64, in model.CardInput) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cards SET name = ?, card_set = ?, condition = ?, price = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		in.Name, in.Set, in.Condition, in.Price, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("updating card: %w", err)
	}
	return expectOneRow(result)
}

// DeleteCard removes a card. Returns model.ErrNotFound if nothing matched.
func DeleteCard(ctx context.Context, db *sql.DB, ownerID, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting card: %w", err)
	}
	return expectOneRow(result)
}

// SetCardImage stores a processed image for a card.
func SetCardImage(ctx context.Context, db *sql.DB, ownerID, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cards SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		image, mime, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("setting card image: %w", err)
	}
	return expectOneRow(result)
}

// GetCardImage returns a card's image data and MIME type. Data is nil when
// there is no image or the card is not visible to ownerID.
func GetCardImage(ctx context.Context, db *sql.DB, ownerID, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM cards WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting card image: %w", err)
	}
	return image, mime.String, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
