package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/coleccionables-api/internal/application/pricing"
	"github.com/jhoicas/coleccionables-api/internal/application/stock"
	"github.com/jhoicas/coleccionables-api/internal/domain/entity"
	"github.com/jhoicas/coleccionables-api/internal/domain/repository"
)

// Ensure Store implements stock.TxRunner and pricing.TxRunner.
var _ stock.TxRunner = (*Store)(nil)
var _ pricing.TxRunner = (*Store)(nil)

// Store almacén en memoria con los mismos puertos que PostgreSQL. Se usa con STORE_DRIVER=memory
// y como doble de pruebas. Las transacciones de stock registran un undo por cambio y lo aplican
// si la función termina con error.
type Store struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	products     map[string]*entity.Product
	nodes        map[entity.Level]map[string]*entity.HierarchyNode
	associations map[string][]entity.Association
	events       map[string][]entity.ProductEvent
	totals       map[entity.StockRef]int64
	movements    map[entity.StockableKind]map[string]*entity.StockMovement
	order        map[entity.StockRef][]string // ids de movimiento en orden de inserción
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{st: &state{
		products:     make(map[string]*entity.Product),
		nodes:        make(map[entity.Level]map[string]*entity.HierarchyNode),
		associations: make(map[string][]entity.Association),
		events:       make(map[string][]entity.ProductEvent),
		totals:       make(map[entity.StockRef]int64),
		movements:    make(map[entity.StockableKind]map[string]*entity.StockMovement),
		order:        make(map[entity.StockRef][]string),
	}}
}

// txn transacción de stock: escribe sobre el estado publicado y guarda cómo deshacer cada
// cambio. El candado exclusivo de Run impide que otro lector vea el estado intermedio.
type txn struct {
	st   *state
	undo []func()
}

// state devuelve el estado de la transacción o nil fuera de tx.
func (t *txn) state() *state {
	if t == nil {
		return nil
	}
	return t.st
}

func (t *txn) onRollback(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// Run ejecuta fn con repos atados a la transacción y deshace sus cambios si fn falla o entra en pánico.
// El mutex de escritura serializa todas las transacciones de stock.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txn{st: s.st}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()
	if err := fn(&StockMovementRepo{tx: tx}, &StockRepo{tx: tx}); err != nil {
		return err
	}
	committed = true
	return nil
}

// RunPricing ejecuta fn con repos de solo lectura bajo el candado de lectura.
func (s *Store) RunPricing(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	hierarchyRepo repository.HierarchyRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&ProductRepo{tx: s.st}, &HierarchyRepo{tx: s.st})
}

// Repositorios fuera de transacción: cada llamada toma el candado.

// ProductRepository repos de productos fuera de tx.
func (s *Store) ProductRepository() *ProductRepo { return &ProductRepo{s: s} }

// HierarchyRepository repos de jerarquía fuera de tx.
func (s *Store) HierarchyRepository() *HierarchyRepo { return &HierarchyRepo{s: s} }

// StockRepository repos de totales fuera de tx.
func (s *Store) StockRepository() *StockRepo { return &StockRepo{s: s} }

// StockMovementRepository repos del libro fuera de tx.
func (s *Store) StockMovementRepository() *StockMovementRepo { return &StockMovementRepo{s: s} }

// read ejecuta fn sobre el estado de la tx o, fuera de tx, bajo candado de lectura.
func read(s *Store, tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// write igual que read pero con candado de escritura fuera de tx.
func write(s *Store, tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
