package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrEmptyCatalog     = errors.New("catalog_empty")
	ErrInvalidProduct   = errors.New("invalid_product")
	ErrDuplicateProduct = errors.New("duplicate_product")
)

// Product is a sellable catalog entry. Orders copy the fields they need at
// selection time, so edits here never reach existing orders.
type Product struct {
	ID          string
	Name        string
	Description string
	Emoji       string
	Price       decimal.Decimal
}

type productFile struct {
	ID          string `mapstructure:"id"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Emoji       string `mapstructure:"emoji"`
	Price       string `mapstructure:"price"`
}

type snapshot struct {
	products []Product
	byID     map[string]Product
}

// Holder serves the current catalog and swaps it atomically on file changes.
type Holder struct {
	current atomic.Value // holds snapshot
	log     *zap.Logger
}

var Module = fx.Module("catalog",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Holder, error) {
		return Load(cfg.CatalogPath, log)
	}),
)

// Load reads the catalog file and watches it for edits.
func Load(path string, log *zap.Logger) (*Holder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	snap, err := decode(v)
	if err != nil {
		return nil, err
	}

	holder := &Holder{log: log.Named("catalog")}
	holder.current.Store(snap)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decode(v)
		if err != nil {
			holder.log.Warn("catalog reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		holder.log.Info("catalog reloaded", zap.String("file", e.Name), zap.Int("products", len(updated.products)))
	})
	v.WatchConfig()

	return holder, nil
}

// NewStatic builds a holder from an in-memory product list.
func NewStatic(products ...Product) (*Holder, error) {
	snap, err := build(products)
	if err != nil {
		return nil, err
	}
	holder := &Holder{log: zap.NewNop()}
	holder.current.Store(snap)
	return holder, nil
}

func (h *Holder) Products() []Product {
	snap := h.current.Load().(snapshot)
	out := make([]Product, len(snap.products))
	copy(out, snap.products)
	return out
}

func (h *Holder) Get(id string) (Product, bool) {
	snap := h.current.Load().(snapshot)
	p, ok := snap.byID[strings.TrimSpace(id)]
	return p, ok
}

func decode(v *viper.Viper) (snapshot, error) {
	var raw []productFile
	if err := v.UnmarshalKey("products", &raw); err != nil {
		return snapshot{}, err
	}

	products := make([]Product, 0, len(raw))
	for _, item := range raw {
		price, err := decimal.NewFromString(strings.TrimSpace(item.Price))
		if err != nil {
			return snapshot{}, fmt.Errorf("%w: %q price %q", ErrInvalidProduct, item.Name, item.Price)
		}
		products = append(products, Product{
			ID:          strings.TrimSpace(item.ID),
			Name:        strings.TrimSpace(item.Name),
			Description: strings.TrimSpace(item.Description),
			Emoji:       strings.TrimSpace(item.Emoji),
			Price:       price,
		})
	}
	return build(products)
}

func build(products []Product) (snapshot, error) {
	if len(products) == 0 {
		return snapshot{}, ErrEmptyCatalog
	}

	snap := snapshot{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]Product, len(products)),
	}
	for _, p := range products {
		if p.Name == "" || !p.Price.IsPositive() {
			return snapshot{}, fmt.Errorf("%w: %q", ErrInvalidProduct, p.Name)
		}
		if p.ID == "" {
			p.ID = slug.Make(p.Name)
		}
		if _, exists := snap.byID[p.ID]; exists {
			return snapshot{}, fmt.Errorf("%w: %s", ErrDuplicateProduct, p.ID)
		}
		snap.byID[p.ID] = p
		snap.products = append(snap.products, p)
	}
	sort.SliceStable(snap.products, func(i, j int) bool {
		return snap.products[i].Price.LessThan(snap.products[j].Price)
	})
	return snap, nil
}
