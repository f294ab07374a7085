package controllers

import "github.com/linarqa/linarqa-web/internal/toast"

func toastFor(title, description string, params []string) toast.Toast {
	return toast.Toast{
		Title:       title,
		Description: description,
		Params:      params,
		Variant:     toast.VariantDestructive,
	}
}
