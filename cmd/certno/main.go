// Command certno is the registry operator's offline tool for certificate
// numbers: decode a stored value of any generation, compose the compact
// form, or identify a generation. It talks to no server.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"registrar/internal/certificate"
	"registrar/pkg/certno"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "certno",
		Short: "Inspect and compose marriage certificate numbers",
	}

	rootCmd.AddCommand(decodeCommand())
	rootCmd.AddCommand(encodeCommand())
	rootCmd.AddCommand(detectCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func decodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <number>",
		Short: "Decode a certificate number of any generation into its fields",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			number := certno.Decode(args[0])
			format := certno.DetectFormat(args[0])

			fmt.Printf("format:        %s\n", format)
			if number.IsDefault() {
				fmt.Println("defaulted:     true")
			}
			printField("book", number.Book)
			printField("volume", number.Volume)
			printField("volume letter", number.VolumeLetter)
			printField("volume year", number.VolumeYear)
			printField("serial", number.Serial)
			printField("serial year", number.SerialYear)
			printField("page", number.Page)

			if encoded := certno.Encode(number); encoded != "" && certno.Decode(encoded) == number {
				printField("canonical", encoded)
			}
			printField("display", certificate.Display(number))
		},
	}
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-13s %s\n", label+":", value)
}

func encodeCommand() *cobra.Command {
	var book, volume, volumeLetter, volumeYear, serial, serialYear, page string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Compose the compact form from field values",
		RunE: func(_ *cobra.Command, _ []string) error {
			number := certno.Number{
				Book:         certno.Normalize(book),
				Volume:       certno.Normalize(volume),
				VolumeLetter: certno.Normalize(volumeLetter),
				VolumeYear:   certno.Normalize(volumeYear),
				Serial:       certno.Normalize(serial),
				SerialYear:   certno.Normalize(serialYear),
				Page:         certno.Normalize(page),
			}
			if number.Book == "" {
				number.Book = certno.DefaultBook
			}

			encoded := certno.Encode(number)
			if encoded == "" {
				return errors.New("number is incomplete: volume, serial and page are required")
			}
			if certno.Decode(encoded) != number {
				return errors.New("fields do not survive the compact form; a year-like serial or page needs its year fields filled in")
			}

			fmt.Println(encoded)
			return nil
		},
	}

	cmd.Flags().StringVar(&book, "book", "", "register book numeral (defaults to "+certno.DefaultBook+")")
	cmd.Flags().StringVar(&volume, "volume", "", "volume number")
	cmd.Flags().StringVar(&volumeLetter, "volume-letter", "", "volume letter, if any")
	cmd.Flags().StringVar(&volumeYear, "volume-year", "", "volume year, if any")
	cmd.Flags().StringVar(&serial, "serial", "", "serial number")
	cmd.Flags().StringVar(&serialYear, "serial-year", "", "serial year, if any")
	cmd.Flags().StringVar(&page, "page", "", "page number")
	return cmd
}

func detectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <number>",
		Short: "Report which generation a certificate number belongs to",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			fmt.Println(certno.DetectFormat(args[0]))
		},
	}
}
