package composer

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/shopspring/decimal"
)

type State string

const (
	StateSelectingIngredients State = "selecting_ingredients"
	StateEnteringSteps        State = "entering_steps"
	StateSaved                State = "saved"
	StateAbandoned            State = "abandoned"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateSaved || s == StateAbandoned
}

const unknownIngredient = "Unknown"

// Resolver looks up product ids against the live catalog.
type Resolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// Saver persists a finished dish for a user.
type Saver interface {
	Create(ctx context.Context, userID string, d domain.Dish) error
}

// Selection is one chosen ingredient and its quantity.
type Selection struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Draft is a point-in-time copy of a composer's state.
type Draft struct {
	DishID      string              `json:"dish_id"`
	State       State               `json:"state"`
	Name        string              `json:"name"`
	Image       string              `json:"image"`
	Ingredients []Selection         `json:"ingredients"`
	Steps       []domain.RecipeStep `json:"steps"`
}

// Composer collects a custom dish in two steps: ingredients first, then recipe steps.
// The selection is an ordered set; every selected id has a quantity of at least 1
// and no other id has one.
type Composer struct {
	mu sync.Mutex

	state      State
	dishID     string
	name       string
	image      string
	selection  []string
	quantities map[string]int
	steps      []domain.RecipeStep
}

// New starts a composer for a dish whose id was allocated up front,
// so images can be uploaded before the dish is saved.
func New(dishID string) *Composer {
	return &Composer{
		state:      StateSelectingIngredients,
		dishID:     dishID,
		quantities: make(map[string]int),
	}
}

func (c *Composer) DishID() string {
	return c.dishID
}

func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := Draft{
		DishID:      c.dishID,
		State:       c.state,
		Name:        c.name,
		Image:       c.image,
		Ingredients: make([]Selection, len(c.selection)),
		Steps:       slices.Clone(c.steps),
	}
	for i, id := range c.selection {
		d.Ingredients[i] = Selection{ProductID: id, Quantity: c.quantities[id]}
	}
	if d.Steps == nil {
		d.Steps = []domain.RecipeStep{}
	}
	return d
}

func (c *Composer) requireState(s State) error {
	if c.state != s {
		return fmt.Errorf("composer: %s: %w", c.state, ErrInvalidState)
	}
	return nil
}

func (c *Composer) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	c.name = name
	return nil
}

func (c *Composer) SetImage(uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	c.image = uri
	return nil
}

// ToggleIngredient adds p with quantity 1, or removes it and its quantity if already selected.
// It reports whether p is selected afterwards.
func (c *Composer) ToggleIngredient(p domain.Product) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return false, err
	}

	if i := slices.Index(c.selection, p.ID); i >= 0 {
		c.selection = slices.Delete(c.selection, i, i+1)
		delete(c.quantities, p.ID)
		return false, nil
	}
	c.selection = append(c.selection, p.ID)
	c.quantities[p.ID] = 1
	return true, nil
}

// SetQuantity parses text as a quantity. Anything that is not a positive integer becomes 1.
// Unselected products are ignored.
func (c *Composer) SetQuantity(productID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	if _, ok := c.quantities[productID]; !ok {
		return nil
	}

	q, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || q < 1 {
		q = 1
	}
	c.quantities[productID] = q
	return nil
}

func (c *Composer) IncrementQuantity(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	if q, ok := c.quantities[productID]; ok {
		c.quantities[productID] = q + 1
	}
	return nil
}

// DecrementQuantity floors at 1.
func (c *Composer) DecrementQuantity(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	if q, ok := c.quantities[productID]; ok && q > 1 {
		c.quantities[productID] = q - 1
	}
	return nil
}

// ProceedToSteps moves to recipe entry once name, image and at least one ingredient are set.
func (c *Composer) ProceedToSteps() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateSelectingIngredients); err != nil {
		return err
	}
	if strings.TrimSpace(c.name) == "" || c.image == "" || len(c.selection) == 0 {
		return &ValidationError{Message: MsgMissingFields}
	}
	c.state = StateEnteringSteps
	return nil
}

// AddStep appends a step numbered after the existing ones. Blank text is ignored.
func (c *Composer) AddStep(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateEnteringSteps); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.steps = append(c.steps, domain.RecipeStep{
		ID:          strconv.Itoa(len(c.steps) + 1),
		Description: text,
	})
	return nil
}

// Save snapshots the selected ingredients from the catalog and persists the dish.
// On any failure the composer keeps its state so the user can retry.
func (c *Composer) Save(ctx context.Context, resolver Resolver, saver Saver, author domain.User) (domain.Dish, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireState(StateEnteringSteps); err != nil {
		return domain.Dish{}, err
	}
	if len(c.steps) == 0 {
		return domain.Dish{}, &ValidationError{Message: MsgNoSteps}
	}

	products, err := resolver.Resolve(ctx, c.selection)
	if err != nil {
		return domain.Dish{}, fmt.Errorf("composer: resolving ingredients: %w", err)
	}

	d := domain.Dish{
		ID:          c.dishID,
		Name:        c.name,
		Image:       c.image,
		Ingredients: make([]domain.Ingredient, len(c.selection)),
		Steps:       slices.Clone(c.steps),
		AuthorID:    author.UID,
		AuthorName:  author.DisplayName(),
		CreatedAt:   time.Now().UTC(),
	}
	for i, id := range c.selection {
		in := domain.Ingredient{
			ID:       id,
			Name:     unknownIngredient,
			Quantity: c.quantities[id],
			Price:    decimal.Zero,
		}
		if p, ok := products[id]; ok {
			in.Name, in.Price, in.Image = p.Name, p.Price, p.Image
		}
		d.Ingredients[i] = in
	}

	if err := saver.Create(ctx, author.UID, d); err != nil {
		return domain.Dish{}, fmt.Errorf("composer: saving dish: %w", err)
	}
	c.state = StateSaved
	return d, nil
}

// Abandon discards the draft. Only non-terminal composers can be abandoned.
func (c *Composer) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		return fmt.Errorf("composer: %s: %w", c.state, ErrInvalidState)
	}
	c.state = StateAbandoned
	return nil
}

// Search filters products by a case-insensitive substring of their name.
func Search(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(query)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}
