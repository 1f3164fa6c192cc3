package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.client.Login(cmd.Context(), models.Credenciales{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			err = app.sessions.Set(session.Session{
				Token:  result.Token,
				Role:   result.Role,
				Email:  result.Email,
				UserID: result.ID,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Sesión iniciada como %s (%s)\n", result.Email, result.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "correo del usuario")
	cmd.Flags().StringVarP(&password, "password", "p", "", "contraseña")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Cierra la sesión y borra el token guardado",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !app.sessions.Get().Active() {
				fmt.Println("No hay sesión activa")
				return nil
			}
			if err := app.sessions.Clear(); err != nil {
				return err
			}
			fmt.Println("Sesión cerrada")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var reg models.Registro

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Registra un nuevo usuario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			message, err := app.client.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			if message == "" {
				message = "usuario registrado"
			}
			fmt.Println(message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "correo del usuario")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "contraseña")
	cmd.Flags().StringVar(&reg.Role, "role", string(models.RoleAlquimista), "rol: alquimista o supervisor")
	cmd.Flags().StringVar(&reg.Nombre, "nombre", "", "nombre visible")
	cmd.Flags().StringVar(&reg.Rango, "rango", "", "rango dentro del gremio")
	cmd.Flags().StringVar(&reg.Especialidad, "especialidad", "", "especialidad alquímica")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
