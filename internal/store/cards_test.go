package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/pokestock/internal/db"
	"github.com/erazemk/pokestock/internal/model"
)

func newOwner(t *testing.T, database *sql.DB, email string) int64 {
	t.Helper()
	u, err := CreateUser(context.Background(), database, email, "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func TestCreateAndGetCard(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database, "ash@pallet.town")

	card, err := CreateCard(ctx, database, owner, model.CardInput{Name: "Charizard", Set: "Base Set", Condition: "Mint", Price: 350.5})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if card.ID == 0 {
		t.Error("expected an assigned id")
	}
	if card.OwnerID != owner {
		t.Errorf("expected owner %d, got %d", owner, card.OwnerID)
	}
	if card.Name != "Charizard" || card.Set != "Base Set" || card.Condition != "Mint" || card.Price != 350.5 {
		t.Errorf("unexpected card: %+v", card)
	}
	if card.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestCardsAreScopedToOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ash := newOwner(t, database, "ash@pallet.town")
	gary := newOwner(t, database, "gary@pallet.town")

	mine, _ := CreateCard(ctx, database, ash, model.CardInput{Name: "Pikachu", Set: "Jungle", Condition: "Good", Price: 5})
	CreateCard(ctx, database, gary, model.CardInput{Name: "Eevee", Set: "Jungle", Condition: "Mint", Price: 8})

	cards, err := ListCards(ctx, database, ash, time.Time{})
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != mine.ID {
		t.Fatalf("expected only ash's card, got %+v", cards)
	}

	got, err := GetCard(ctx, database, gary, mine.ID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if got != nil {
		t.Error("expected another owner's card to be invisible")
	}

	if err := UpdateCard(ctx, database, gary, mine.ID, model.CardInput{Name: "Stolen", Set: "x", Condition: "x", Price: 1}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating foreign card, got %v", err)
	}
	if err := DeleteCard(ctx, database, gary, mine.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting foreign card, got %v", err)
	}
}

func TestUpdateCardKeepsImmutableFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database, "ash@pallet.town")

	card, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Blastoise", Set: "Base Set", Condition: "Good", Price: 100})
	other, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Venusaur", Set: "Base Set", Condition: "Good", Price: 90})

	err := UpdateCard(ctx, database, owner, card.ID, model.CardInput{Name: "Blastoise", Set: "Base Set 2", Condition: "Near Mint", Price: 140})
	if err != nil {
		t.Fatalf("UpdateCard: %v", err)
	}

	got, _ := GetCard(ctx, database, owner, card.ID)
	if got.Set != "Base Set 2" || got.Condition != "Near Mint" || got.Price != 140 {
		t.Errorf("mutable fields not updated: %+v", got)
	}
	if got.ID != card.ID || got.OwnerID != card.OwnerID || !got.CreatedAt.Equal(card.CreatedAt) {
		t.Errorf("immutable fields changed: before %+v after %+v", card, got)
	}

	untouched, _ := GetCard(ctx, database, owner, other.ID)
	if untouched.Set != "Base Set" || untouched.Price != 90 {
		t.Errorf("other card changed: %+v", untouched)
	}
}

func TestDeleteCard(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database, "ash@pallet.town")

	card, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Mew", Set: "Promo", Condition: "Mint", Price: 20})
	keep, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Mewtwo", Set: "Base Set", Condition: "Mint", Price: 30})

	if err := DeleteCard(ctx, database, owner, card.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}

	cards, _ := ListCards(ctx, database, owner, time.Time{})
	if len(cards) != 1 || cards[0].ID != keep.ID {
		t.Errorf("expected only the kept card, got %+v", cards)
	}

	if err := DeleteCard(ctx, database, owner, card.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListCardsSince(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database, "ash@pallet.town")

	old, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Old", Set: "Base Set", Condition: "Poor", Price: 1})
	CreateCard(ctx, database, owner, model.CardInput{Name: "New", Set: "Base Set", Condition: "Mint", Price: 1})

	backdated := time.Now().AddDate(0, 0, -40).UTC().Format(sqliteTime)
	if _, err := database.ExecContext(ctx, `UPDATE cards SET created_at = ? WHERE id = ?`, backdated, old.ID); err != nil {
		t.Fatal(err)
	}

	recent, err := ListCards(ctx, database, owner, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(recent) != 1 || recent[0].Name != "New" {
		t.Errorf("expected only the new card, got %+v", recent)
	}

	all, _ := ListCards(ctx, database, owner, time.Time{})
	if len(all) != 2 {
		t.Errorf("expected 2 cards, got %d", len(all))
	}
	if all[0].Name != "New" {
		t.Errorf("expected newest first, got %q", all[0].Name)
	}
}

func TestCardImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database, "ash@pallet.town")
	other := newOwner(t, database, "brock@pewter.gym")

	card, _ := CreateCard(ctx, database, owner, model.CardInput{Name: "Onix", Set: "Base Set", Condition: "Good", Price: 2})
	if err := SetCardImage(ctx, database, owner, card.ID, []byte("fake image data"), "image/jpeg"); err != nil {
		t.Fatalf("SetCardImage: %v", err)
	}

	data, mime, err := GetCardImage(ctx, database, owner, card.ID)
	if err != nil {
		t.Fatalf("GetCardImage: %v", err)
	}
	if string(data) != "fake image data" || mime != "image/jpeg" {
		t.Errorf("unexpected image %q %q", data, mime)
	}

	got, _ := GetCard(ctx, database, owner, card.ID)
	if !got.HasImage() {
		t.Error("expected card to report an image")
	}

	data, _, _ = GetCardImage(ctx, database, other, card.ID)
	if data != nil {
		t.Error("expected image to be hidden from other owners")
	}
	if err := SetCardImage(ctx, database, other, card.ID, []byte("x"), "image/jpeg"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
