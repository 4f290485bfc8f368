package main

import (
	"fmt"

	"github.com/fentz26/promptgate/internal/models"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage auto-submit prompt templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		templates, err := st.ListPromptTemplates("")
		if err != nil {
			return err
		}
		if len(templates) == 0 {
			fmt.Println("no templates")
			return nil
		}
		for _, t := range templates {
			fmt.Printf("%s  %-8s %s\n", t.ID, t.Kind, t.Name)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := st.GetPromptTemplate(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("name: %s\nkind: %s\n\n%s\n", t.Name, t.Kind, t.Content)
		return nil
	},
}

var templateAddCmd = &cobra.Command{
	Use:   "add <name> <content>",
	Short: "Create a prompt template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		t, err := st.CreatePromptTemplate(args[0], args[1], models.TemplateKindNormal)
		if err != nil {
			return err
		}
		fmt.Println(t.ID)
		return nil
	},
}

var templateRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a prompt template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		return st.DeletePromptTemplate(args[0])
	},
}

func init() {
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateAddCmd)
	templateCmd.AddCommand(templateRmCmd)
}
