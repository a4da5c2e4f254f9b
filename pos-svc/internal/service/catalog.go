package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"happy-hearts-pos/pos-svc/internal/domain"
)

const MenuKey = "happyHeartsMenuData"

// Catalog is the menu store. An absent or unreadable document falls back
// to the built-in menu.
type Catalog struct {
	origin Origin
	log    *slog.Logger
}

func NewCatalog(origin Origin, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{origin: origin, log: log}
}

func (c *Catalog) Get(ctx context.Context) (domain.MenuData, error) {
	var menu domain.MenuData
	ok, err := loadDocument(ctx, c.origin, MenuKey, &menu)
	if err != nil {
		c.log.Warn("failed to load menu data, using built-in menu", "err", err)
		return DefaultMenu(), nil
	}
	if !ok {
		return DefaultMenu(), nil
	}
	return menu, nil
}

func (c *Catalog) Save(ctx context.Context, menu domain.MenuData) error {
	if err := validateMenu(menu); err != nil {
		return err
	}
	return saveDocument(ctx, c.origin, c.log, MenuKey, menu)
}

// Reset drops the stored menu so the built-in one applies again.
func (c *Catalog) Reset(ctx context.Context) error {
	return removeDocument(ctx, c.origin, c.log, MenuKey)
}

func (c *Catalog) Find(ctx context.Context, id int) (domain.MenuItem, error) {
	menu, err := c.Get(ctx)
	if err != nil {
		return domain.MenuItem{}, err
	}
	item, ok := menu.Find(id)
	if !ok {
		return domain.MenuItem{}, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return item, nil
}

func validateMenu(menu domain.MenuData) error {
	seen := make(map[int]bool)
	categories := make(map[string]bool)
	var errs []error
	for _, category := range menu.Categories {
		if strings.TrimSpace(category.Name) == "" {
			errs = append(errs, errors.New("category name is empty"))
		}
		if categories[category.Name] {
			errs = append(errs, fmt.Errorf("duplicate category %q", category.Name))
		}
		categories[category.Name] = true
		for _, item := range category.Items {
			if seen[item.ID] {
				errs = append(errs, fmt.Errorf("duplicate item id %d", item.ID))
			}
			seen[item.ID] = true
			if strings.TrimSpace(item.Name) == "" {
				errs = append(errs, fmt.Errorf("item %d has no name", item.ID))
			}
			if item.Price < 0 {
				errs = append(errs, fmt.Errorf("item %d has a negative price", item.ID))
			}
			for _, size := range item.Sizes {
				if size.Price < 0 {
					errs = append(errs, fmt.Errorf("item %d size %q has a negative price", item.ID, size.Name))
				}
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMenu, errors.Join(errs...))
	}
	return nil
}

// DefaultMenu is the built-in catalog used until an admin saves a menu.
func DefaultMenu() domain.MenuData {
	milkTea := func(id int, name, desc string) domain.MenuItem {
		return domain.MenuItem{
			ID: id, Name: name, Category: "Milk Tea", Price: 89, Description: desc,
			Sizes: []domain.Size{{Name: "Medium", Price: 89}, {Name: "Large", Price: 109}},
		}
	}
	coffee := func(id int, name, desc string, medium, large float64) domain.MenuItem {
		return domain.MenuItem{
			ID: id, Name: name, Category: "Coffee", Price: medium, Description: desc,
			Sizes: []domain.Size{{Name: "Medium", Price: medium}, {Name: "Large", Price: large}},
		}
	}
	return domain.MenuData{Categories: []domain.Category{
		{Name: "Milk Tea", Items: []domain.MenuItem{
			milkTea(1, "Classic Pearl Milk Tea", "Black tea, fresh milk and brown sugar pearls."),
			milkTea(2, "Wintermelon Milk Tea", "Caramel-sweet wintermelon with milk."),
			milkTea(3, "Okinawa Milk Tea", "Roasted brown sugar milk tea."),
			milkTea(4, "Taro Milk Tea", "Creamy taro blended with milk tea."),
		}},
		{Name: "Coffee", Items: []domain.MenuItem{
			coffee(10, "Iced Americano", "Double shot over ice.", 79, 99),
			coffee(11, "Spanish Latte", "Espresso with sweetened milk.", 109, 129),
			coffee(12, "Caramel Macchiato", "Vanilla milk, espresso and caramel drizzle.", 119, 139),
		}},
		{Name: "Snacks", Items: []domain.MenuItem{
			{ID: 20, Name: "Cheesy Fries", Category: "Snacks", Price: 75, Description: "Crinkle fries with cheese sauce."},
			{ID: 21, Name: "Chicken Poppers", Category: "Snacks", Price: 120, Description: "Bite-size crispy chicken with dip."},
			{ID: 22, Name: "Clubhouse Sandwich", Category: "Snacks", Price: 145, Description: "Triple-decker with ham, egg and chicken."},
		}},
		{Name: "Rice Meals", Items: []domain.MenuItem{
			{ID: 30, Name: "Chicken Teriyaki", Category: "Rice Meals", Price: 150, Description: "Glazed chicken thigh with rice."},
			{ID: 31, Name: "Pork Sisig", Category: "Rice Meals", Price: 160, Description: "Sizzling chopped pork with egg and rice."},
			{ID: 32, Name: "Beef Tapa", Category: "Rice Meals", Price: 170, Description: "Cured beef, garlic rice and fried egg."},
		}},
	}}
}
