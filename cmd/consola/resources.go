package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alquimia/consola/internal/controller"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/pkg/clients/alquimia"
)

// resourceSpec describes how one record kind maps onto the shared command
// set: endpoint path, table rendering and the flag surface for crear/editar.
type resourceSpec[R models.Record] struct {
	use      string
	short    string
	path     string
	describe func(R) string
	header   []string
	row      func(R) []string
	// createFlags registers flags on the crear command and returns a builder
	// that materializes the record from them.
	createFlags func(cmd *cobra.Command) func() R
	// editFlags registers flags on the editar command and returns a function
	// that applies only the flags the user actually set onto the draft.
	editFlags  func(cmd *cobra.Command) func(R) R
	adjustable bool
}

func newResourceGroup[R models.Record](spec resourceSpec[R]) *cobra.Command {
	group := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
	}

	group.AddCommand(newListCmd(spec))
	group.AddCommand(newCrearCmd(spec))
	group.AddCommand(newEditarCmd(spec))
	group.AddCommand(newEliminarCmd(spec))
	if spec.adjustable {
		group.AddCommand(newAjustarCmd(spec))
	}

	return group
}

func newCtrl[R models.Record](spec resourceSpec[R], limit int, autoConfirm *bool) *controller.ResourceController[R] {
	api := alquimia.NewResource[R](app.client, spec.path)
	return controller.New[R](api, app.sessions, app.logger,
		controller.WithLimit[R](limit),
		controller.WithConfirm[R](func(r R) bool {
			if autoConfirm != nil && *autoConfirm {
				return true
			}
			fmt.Printf("¿Eliminar %s? Esta acción es irreversible. [s/N]: ", spec.describe(r))
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			switch strings.TrimSpace(strings.ToLower(line)) {
			case "s", "si", "sí", "y", "yes":
				return true
			}
			return false
		}))
}

func newListCmd[R models.Record](spec resourceSpec[R]) *cobra.Command {
	var page, limit int
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista " + spec.use + " con paginación y filtro",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl := newCtrl(spec, limit, nil)
			if err := ctrl.Search(cmd.Context(), query); err != nil {
				return err
			}
			if page > 1 {
				if err := ctrl.Load(cmd.Context(), page); err != nil {
					return err
				}
			}
			renderTable(ctrl.Snapshot(), spec)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "número de página (desde 1)")
	cmd.Flags().IntVar(&limit, "limit", 10, "tamaño de página")
	cmd.Flags().StringVarP(&query, "q", "q", "", "texto de búsqueda")

	return cmd
}

func newCrearCmd[R models.Record](spec resourceSpec[R]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crear",
		Short: "Crea un registro nuevo",
	}
	build := spec.createFlags(cmd)

	cmd.RunE = func(c *cobra.Command, _ []string) error {
		ctrl := newCtrl(spec, 10, nil)
		if err := ctrl.Create(c.Context(), build()); err != nil {
			return err
		}
		st := ctrl.Snapshot()
		fmt.Println(st.Info)
		renderTable(st, spec)
		return nil
	}

	return cmd
}

func newEditarCmd[R models.Record](spec resourceSpec[R]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editar <id>",
		Short: "Edita campos de un registro existente",
		Args:  cobra.ExactArgs(1),
	}
	apply := spec.editFlags(cmd)

	cmd.RunE = func(c *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		ctrl := newCtrl(spec, 10, nil)
		if err := locate(c.Context(), ctrl, id); err != nil {
			return err
		}
		if err := ctrl.StartEdit(id); err != nil {
			return err
		}

		draft := *ctrl.Snapshot().Editing
		if err := ctrl.SetDraft(apply(draft)); err != nil {
			return err
		}
		if err := ctrl.SaveEdit(c.Context()); err != nil {
			return err
		}

		fmt.Println(ctrl.Snapshot().Info)
		return nil
	}

	return cmd
}

func newEliminarCmd[R models.Record](spec resourceSpec[R]) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Elimina un registro (pide confirmación)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			ctrl := newCtrl(spec, 10, &yes)
			if err := locate(c.Context(), ctrl, id); err != nil {
				return err
			}
			if err := ctrl.Remove(c.Context(), id); err != nil {
				return err
			}

			fmt.Println(ctrl.Snapshot().Info)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "omite la confirmación")

	return cmd
}

func newAjustarCmd[R models.Record](spec resourceSpec[R]) *cobra.Command {
	var delta float64
	var motivo string

	cmd := &cobra.Command{
		Use:   "ajustar <id>",
		Short: "Aplica un ajuste de stock con motivo",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			ctrl := newCtrl(spec, 10, nil)
			if err := locate(c.Context(), ctrl, id); err != nil {
				return err
			}
			if err := ctrl.StartAjuste(id); err != nil {
				return err
			}
			if err := ctrl.ApplyAjuste(c.Context(), delta, motivo); err != nil {
				return err
			}

			fmt.Println(ctrl.Snapshot().Info)
			return nil
		},
	}

	cmd.Flags().Float64Var(&delta, "delta", 0, "cantidad a sumar o restar (no puede ser 0)")
	cmd.Flags().StringVar(&motivo, "motivo", "", "motivo del ajuste")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

// locate walks the listing until the page containing the record is loaded.
func locate[R models.Record](ctx context.Context, ctrl *controller.ResourceController[R], id uint) error {
	for page := 1; ; page++ {
		if err := ctrl.Load(ctx, page); err != nil {
			return err
		}
		st := ctrl.Snapshot()
		for _, item := range st.Items {
			if item.RecordID() == id {
				return nil
			}
		}
		if page >= st.TotalPages {
			return fmt.Errorf("registro %d no encontrado", id)
		}
	}
}

func parseIDArg(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("id inválido: %q", raw)
	}
	return uint(id), nil
}

func renderTable[R models.Record](st controller.State[R], spec resourceSpec[R]) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(spec.header, "\t"))
	for _, item := range st.Items {
		fmt.Fprintln(w, strings.Join(spec.row(item), "\t"))
	}
	_ = w.Flush()
	fmt.Printf("Página %d de %d (total %d)\n", st.Page, st.TotalPages, st.Total)
}

// --- per-resource specs ---

func newMaterialesCmd() *cobra.Command {
	return newResourceGroup(resourceSpec[models.Material]{
		use:        "materiales",
		short:      "Inventario de materiales alquímicos",
		path:       "materiales",
		adjustable: true,
		describe:   func(m models.Material) string { return fmt.Sprintf("material %q", m.Nombre) },
		header:     []string{"ID", "NOMBRE", "UNIDAD", "CANTIDAD"},
		row: func(m models.Material) []string {
			return []string{
				strconv.FormatUint(uint64(m.ID), 10), m.Nombre, m.Unidad,
				strconv.FormatFloat(m.Cantidad, 'f', -1, 64),
			}
		},
		createFlags: func(cmd *cobra.Command) func() models.Material {
			var m models.Material
			cmd.Flags().StringVar(&m.Nombre, "nombre", "", "nombre del material")
			cmd.Flags().StringVar(&m.Unidad, "unidad", "", "unidad (kg, g, ml...)")
			cmd.Flags().Float64Var(&m.Cantidad, "cantidad", 0, "cantidad inicial")
			_ = cmd.MarkFlagRequired("nombre")
			_ = cmd.MarkFlagRequired("unidad")
			return func() models.Material { return m }
		},
		editFlags: func(cmd *cobra.Command) func(models.Material) models.Material {
			var nombre, unidad string
			var cantidad float64
			cmd.Flags().StringVar(&nombre, "nombre", "", "nuevo nombre")
			cmd.Flags().StringVar(&unidad, "unidad", "", "nueva unidad")
			cmd.Flags().Float64Var(&cantidad, "cantidad", 0, "nueva cantidad")
			return func(m models.Material) models.Material {
				if cmd.Flags().Changed("nombre") {
					m.Nombre = nombre
				}
				if cmd.Flags().Changed("unidad") {
					m.Unidad = unidad
				}
				if cmd.Flags().Changed("cantidad") {
					m.Cantidad = cantidad
				}
				return m
			}
		},
	})
}

func newAlquimistasCmd() *cobra.Command {
	return newResourceGroup(resourceSpec[models.Alquimista]{
		use:      "alquimistas",
		short:    "Alquimistas registrados en el gremio",
		path:     "alquimistas",
		describe: func(a models.Alquimista) string { return fmt.Sprintf("alquimista %q", a.Nombre) },
		header:   []string{"ID", "NOMBRE", "RANGO", "ESPECIALIDAD"},
		row: func(a models.Alquimista) []string {
			return []string{strconv.FormatUint(uint64(a.ID), 10), a.Nombre, a.Rango, a.Especialidad}
		},
		createFlags: func(cmd *cobra.Command) func() models.Alquimista {
			var a models.Alquimista
			cmd.Flags().StringVar(&a.Nombre, "nombre", "", "nombre del alquimista")
			cmd.Flags().StringVar(&a.Rango, "rango", "", "rango")
			cmd.Flags().StringVar(&a.Especialidad, "especialidad", "", "especialidad")
			_ = cmd.MarkFlagRequired("nombre")
			_ = cmd.MarkFlagRequired("rango")
			return func() models.Alquimista { return a }
		},
		editFlags: func(cmd *cobra.Command) func(models.Alquimista) models.Alquimista {
			var nombre, rango, especialidad string
			cmd.Flags().StringVar(&nombre, "nombre", "", "nuevo nombre")
			cmd.Flags().StringVar(&rango, "rango", "", "nuevo rango")
			cmd.Flags().StringVar(&especialidad, "especialidad", "", "nueva especialidad")
			return func(a models.Alquimista) models.Alquimista {
				if cmd.Flags().Changed("nombre") {
					a.Nombre = nombre
				}
				if cmd.Flags().Changed("rango") {
					a.Rango = rango
				}
				if cmd.Flags().Changed("especialidad") {
					a.Especialidad = especialidad
				}
				return a
			}
		},
	})
}

func newMisionesCmd() *cobra.Command {
	return newResourceGroup(resourceSpec[models.Mision]{
		use:      "misiones",
		short:    "Misiones asignadas a los alquimistas",
		path:     "misiones",
		describe: func(m models.Mision) string { return fmt.Sprintf("misión %q", m.Titulo) },
		header:   []string{"ID", "TITULO", "PRIORIDAD", "ESTADO", "ALQUIMISTA"},
		row: func(m models.Mision) []string {
			return []string{
				strconv.FormatUint(uint64(m.ID), 10), m.Titulo, m.Prioridad, m.Estado,
				strconv.FormatUint(uint64(m.AlquimistaID), 10),
			}
		},
		createFlags: func(cmd *cobra.Command) func() models.Mision {
			var m models.Mision
			cmd.Flags().StringVar(&m.Titulo, "titulo", "", "título de la misión")
			cmd.Flags().StringVar(&m.Descripcion, "descripcion", "", "descripción")
			cmd.Flags().StringVar(&m.Prioridad, "prioridad", models.PrioridadMedia, "baja, media o alta")
			cmd.Flags().UintVar(&m.AlquimistaID, "alquimista-id", 0, "alquimista asignado")
			cmd.Flags().StringVar(&m.Materiales, "materiales", "", "materiales requeridos")
			_ = cmd.MarkFlagRequired("titulo")
			return func() models.Mision { return m }
		},
		editFlags: func(cmd *cobra.Command) func(models.Mision) models.Mision {
			var titulo, descripcion, prioridad, estado, informe string
			cmd.Flags().StringVar(&titulo, "titulo", "", "nuevo título")
			cmd.Flags().StringVar(&descripcion, "descripcion", "", "nueva descripción")
			cmd.Flags().StringVar(&prioridad, "prioridad", "", "nueva prioridad")
			cmd.Flags().StringVar(&estado, "estado", "", "nuevo estado")
			cmd.Flags().StringVar(&informe, "informe-final", "", "informe final")
			return func(m models.Mision) models.Mision {
				if cmd.Flags().Changed("titulo") {
					m.Titulo = titulo
				}
				if cmd.Flags().Changed("descripcion") {
					m.Descripcion = descripcion
				}
				if cmd.Flags().Changed("prioridad") {
					m.Prioridad = prioridad
				}
				if cmd.Flags().Changed("estado") {
					m.Estado = estado
				}
				if cmd.Flags().Changed("informe-final") {
					m.InformeFinal = informe
				}
				return m
			}
		},
	})
}

func newTransmutacionesCmd() *cobra.Command {
	return newResourceGroup(resourceSpec[models.Transmutacion]{
		use:      "transmutaciones",
		short:    "Transmutaciones registradas",
		path:     "transmutaciones",
		describe: func(t models.Transmutacion) string { return fmt.Sprintf("transmutación %q", t.Nombre) },
		header:   []string{"ID", "NOMBRE", "COSTO", "ESTADO", "RESULTADO"},
		row: func(t models.Transmutacion) []string {
			return []string{
				strconv.FormatUint(uint64(t.ID), 10), t.Nombre,
				strconv.FormatFloat(t.Costo, 'f', 2, 64), t.Estado, t.Resultado,
			}
		},
		createFlags: func(cmd *cobra.Command) func() models.Transmutacion {
			var t models.Transmutacion
			cmd.Flags().StringVar(&t.Nombre, "nombre", "", "nombre de la transmutación")
			cmd.Flags().StringVar(&t.Descripcion, "descripcion", "", "descripción")
			cmd.Flags().Float64Var(&t.Costo, "costo", 0, "costo estimado")
			_ = cmd.MarkFlagRequired("nombre")
			return func() models.Transmutacion { return t }
		},
		editFlags: func(cmd *cobra.Command) func(models.Transmutacion) models.Transmutacion {
			var nombre, descripcion, estado, resultado string
			var costo float64
			cmd.Flags().StringVar(&nombre, "nombre", "", "nuevo nombre")
			cmd.Flags().StringVar(&descripcion, "descripcion", "", "nueva descripción")
			cmd.Flags().Float64Var(&costo, "costo", 0, "nuevo costo")
			cmd.Flags().StringVar(&estado, "estado", "", "nuevo estado")
			cmd.Flags().StringVar(&resultado, "resultado", "", "resultado")
			return func(t models.Transmutacion) models.Transmutacion {
				if cmd.Flags().Changed("nombre") {
					t.Nombre = nombre
				}
				if cmd.Flags().Changed("descripcion") {
					t.Descripcion = descripcion
				}
				if cmd.Flags().Changed("costo") {
					t.Costo = costo
				}
				if cmd.Flags().Changed("estado") {
					t.Estado = estado
				}
				if cmd.Flags().Changed("resultado") {
					t.Resultado = resultado
				}
				return t
			}
		},
	})
}
