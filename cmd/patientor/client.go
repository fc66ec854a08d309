package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/form"
	"github.com/ehr/patientor/internal/gateway"
	"github.com/ehr/patientor/internal/platform/auth"
	"github.com/ehr/patientor/internal/state"
	"github.com/ehr/patientor/internal/view"
)

// entryFieldFlags maps `entries add` flags to form fields.
var entryFieldFlags = []struct {
	flag, field, usage string
}{
	{"date", "date", "Entry date"},
	{"description", "description", "Description"},
	{"specialist", "specialist", "Specialist"},
	{"diagnosis-codes", "diagnosisCodes", "Comma separated diagnosis codes"},
	{"rating", "healthCheckRating", "Health check rating 0-3 (HealthCheck)"},
	{"discharge-date", "discharge.date", "Discharge date (Hospital)"},
	{"discharge-criteria", "discharge.criteria", "Discharge criteria (Hospital)"},
	{"employer", "employerName", "Employer name (OccupationalHealthcare)"},
	{"sick-leave-start", "sickLeave.startDate", "Sick leave start (OccupationalHealthcare)"},
	{"sick-leave-end", "sickLeave.endDate", "Sick leave end (OccupationalHealthcare)"},
}

// newSession builds a client session from configuration. The store lives for
// one command; logs go to stderr so they stay out of command output.
func newSession(cfg *config.Config, logOut io.Writer) *gateway.Session {
	logger := newLogger(cfg, logOut)
	opts := []gateway.ClientOption{gateway.WithTimeout(cfg.APITimeout)}
	if cfg.AuthSecret != "" {
		opts = append(opts, gateway.WithSigner(auth.NewSigner(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthSubject)))
	}
	client := gateway.NewClient(cfg.APIBaseURL, opts...)
	return gateway.NewSession(client, state.NewStore(state.Empty(), logger), logger)
}

func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *gateway.Session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := newSession(cfg, cmd.ErrOrStderr())
	defer s.Store().Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s)
}

func patientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "List, show and add patients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *gateway.Session) error {
				if err := s.LoadPatients(ctx); err != nil {
					return err
				}
				return writePatientList(cmd.OutOrStdout(), s.Store().Snapshot())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a patient with its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *gateway.Session) error {
				if err := s.LoadDiagnoses(ctx); err != nil {
					return err
				}
				d, err := s.PatientDetail(ctx, args[0])
				if err != nil {
					return err
				}
				return writePatient(cmd.OutOrStdout(), s, d)
			})
		},
	})

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			np := patient.NewPatient{}
			np.Name, _ = cmd.Flags().GetString("name")
			np.Occupation, _ = cmd.Flags().GetString("occupation")
			gender, _ := cmd.Flags().GetString("gender")
			np.Gender = patient.Gender(gender)
			if cmd.Flags().Changed("ssn") {
				ssn, _ := cmd.Flags().GetString("ssn")
				np.SSN = &ssn
			}
			if cmd.Flags().Changed("dob") {
				dob, _ := cmd.Flags().GetString("dob")
				np.DateOfBirth = &dob
			}

			return withSession(cmd, func(ctx context.Context, s *gateway.Session) error {
				p, err := s.AddPatient(ctx, np)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
	addCmd.Flags().String("name", "", "Full name")
	addCmd.Flags().String("occupation", "", "Occupation")
	addCmd.Flags().String("gender", "", "male, female or other")
	addCmd.Flags().String("ssn", "", "Social security number")
	addCmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.AddCommand(addCmd)

	return cmd
}

func diagnosesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnoses",
		Short: "Diagnosis codes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List diagnosis codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *gateway.Session) error {
				if err := s.LoadDiagnoses(ctx); err != nil {
					return err
				}
				diagnoses := s.Store().Snapshot().Diagnoses
				codes := make([]string, 0, len(diagnoses))
				for code := range diagnoses {
					codes = append(codes, code)
				}
				sort.Strings(codes)

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME")
				for _, code := range codes {
					fmt.Fprintf(tw, "%s\t%s\n", code, diagnoses[code].Name)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Patient entries",
	}

	addCmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Add an entry to a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			f, err := buildEntryForm(cmd, patient.EntryType(typ))
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, s *gateway.Session) error {
				if err := s.LoadDiagnoses(ctx); err != nil {
					return err
				}
				_, err := s.SubmitEntry(ctx, args[0], f)
				var verr *form.ValidationError
				if errors.As(err, &verr) {
					writeFieldErrors(cmd.ErrOrStderr(), verr.Fields)
				}
				if err != nil {
					return err
				}
				d, _ := s.Store().Detail(args[0])
				return writePatient(cmd.OutOrStdout(), s, d)
			})
		},
	}
	addCmd.Flags().String("type", string(patient.TypeHealthCheck), "HealthCheck, Hospital or OccupationalHealthcare")
	for _, ef := range entryFieldFlags {
		addCmd.Flags().String(ef.flag, "", ef.usage)
	}
	cmd.AddCommand(addCmd)
	return cmd
}

// buildEntryForm fills a form of type t from the flags the user set.
func buildEntryForm(cmd *cobra.Command, t patient.EntryType) (*form.Form, error) {
	f, err := form.New(t)
	if err != nil {
		return nil, err
	}
	for _, ef := range entryFieldFlags {
		if !cmd.Flags().Changed(ef.flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(ef.flag)
		if err := f.Set(ef.field, value); err != nil {
			return nil, fmt.Errorf("--%s: %w", ef.flag, err)
		}
	}
	return f, nil
}

func writePatientList(w io.Writer, st state.State) error {
	ids := make([]string, 0, len(st.Patients))
	for id := range st.Patients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return st.Patients[ids[i]].Name < st.Patients[ids[j]].Name
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tGENDER\tOCCUPATION")
	for _, id := range ids {
		p := st.Patients[id]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Gender, p.Occupation)
	}
	return tw.Flush()
}

func writePatient(w io.Writer, s *gateway.Session, d patient.DetailedPatientInfo) error {
	v, err := view.RenderPatient(d, s.Store().Snapshot().Diagnoses)
	if err != nil {
		return err
	}
	return view.Write(w, v)
}

func writeFieldErrors(w io.Writer, fields form.Errors) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, fields[k])
	}
}
